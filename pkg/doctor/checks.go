package doctor

import (
	"bytes"
	"os/exec"
	"regexp"
	"strings"
)

// CommandExecutor is an interface for executing commands, allowing for testing.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) (string, error)
	CombinedOutput(name string, args ...string) ([]byte, error)
}

// RealExecutor is the default command executor that uses the real system.
type RealExecutor struct{}

// LookPath finds the path to an executable.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *RealExecutor) Run(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		// Some tools output version to stderr
		if stderr.Len() > 0 {
			return stderr.String(), err
		}
		return stdout.String(), err
	}
	// Prefer stdout, fall back to stderr (some tools output version to stderr)
	output := stdout.String()
	if output == "" {
		output = stderr.String()
	}
	return output, nil
}

// CombinedOutput runs a command and returns combined stdout and stderr.
func (e *RealExecutor) CombinedOutput(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	return cmd.CombinedOutput()
}

// checkTool checks if a tool is installed and gets its version.
func checkTool(exec CommandExecutor, id, name, desc string, versionArgs []string, versionRegex *regexp.Regexp, fixCmd *FixCommand) Check {
	check := Check{
		ID:          id,
		Name:        name,
		Description: desc,
		FixCommand:  fixCmd,
	}

	path, err := exec.LookPath(id)
	if err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	output, err := exec.Run(path, versionArgs...)
	if err != nil {
		// Tool exists but version check failed - still consider it OK
		check.Status = StatusOK
		check.Message = "installed (version unknown)"
		return check
	}

	version := extractVersion(output, versionRegex)
	if version != "" {
		check.Status = StatusOK
		check.Message = version
	} else {
		check.Status = StatusOK
		check.Message = "installed"
	}

	return check
}

// checkDebPackage checks whether an apt package is installed via dpkg -s.
func checkDebPackage(exec CommandExecutor, id, name, desc, pkg string, fixCmd *FixCommand) Check {
	check := Check{
		ID:          id,
		Name:        name,
		Description: desc,
		FixCommand:  fixCmd,
	}

	output, err := exec.Run("dpkg", "-s", pkg)
	if err != nil || !strings.Contains(output, "Status: install ok installed") {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	version := extractVersion(output, regexp.MustCompile(`Version:\s*(\S+)`))
	if version != "" {
		check.Status = StatusOK
		check.Message = version
	} else {
		check.Status = StatusOK
		check.Message = "installed"
	}

	return check
}

// extractVersion pulls a version string out of command output.
func extractVersion(output string, regex *regexp.Regexp) string {
	if regex == nil {
		// Default: look for common version patterns
		defaultRegex := regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9]+)?)`)
		matches := defaultRegex.FindStringSubmatch(output)
		if len(matches) >= 2 {
			return matches[1]
		}
		return ""
	}

	matches := regex.FindStringSubmatch(output)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// CheckAptGet checks if apt-get is installed.
func CheckAptGet(exec CommandExecutor) Check {
	return checkTool(
		exec,
		IDAptGet,
		"apt-get",
		"Debian/Ubuntu package manager",
		[]string{"--version"},
		regexp.MustCompile(`apt (\d+\.\d+(?:\.\d+)?)`),
		nil, // no fix: a non-apt host is out of scope
	)
}

// CheckDpkg checks if dpkg is installed.
func CheckDpkg(exec CommandExecutor) Check {
	return checkTool(
		exec,
		IDDpkg,
		"dpkg",
		"Debian package installer",
		[]string{"--version"},
		regexp.MustCompile(`version (\d+\.\d+(?:\.\d+)?)`),
		nil,
	)
}

// CheckWkhtmltopdf checks if wkhtmltopdf is installed.
func CheckWkhtmltopdf(exec CommandExecutor) Check {
	return checkTool(
		exec,
		IDWkhtmltopdf,
		"wkhtmltopdf",
		"HTML to PDF renderer",
		[]string{"--version"},
		regexp.MustCompile(`wkhtmltopdf (\d+\.\d+\.\d+)`),
		GetFixCommand(IDWkhtmltopdf),
	)
}

// CheckFontconfig checks if the fontconfig package is installed.
func CheckFontconfig(exec CommandExecutor) Check {
	return checkDebPackage(
		exec,
		IDFontconfig,
		"fontconfig",
		"Font configuration library",
		"fontconfig",
		GetFixCommand(IDFontconfig),
	)
}

// CheckXfonts checks if the X font packages wkhtmltox depends on are installed.
func CheckXfonts(exec CommandExecutor) Check {
	check := Check{
		ID:          IDXfonts,
		Name:        "X fonts",
		Description: "xfonts-75dpi and xfonts-base",
		FixCommand:  GetFixCommand(IDXfonts),
	}

	var missing []string
	for _, pkg := range []string{"xfonts-75dpi", "xfonts-base"} {
		output, err := exec.Run("dpkg", "-s", pkg)
		if err != nil || !strings.Contains(output, "Status: install ok installed") {
			missing = append(missing, pkg)
		}
	}

	if len(missing) > 0 {
		check.Status = StatusMissing
		check.Message = "missing: " + strings.Join(missing, ", ")
		return check
	}

	check.Status = StatusOK
	check.Message = "installed"
	return check
}
