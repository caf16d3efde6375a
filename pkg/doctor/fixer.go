package doctor

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// fixCommands defines fix commands for each prerequisite. wkprov targets
// Debian/Ubuntu hosts, so all fixes are apt-based.
var fixCommands = map[string]*FixCommand{
	IDWkhtmltopdf: {
		Description: "Provision wkhtmltopdf (index refresh, dependencies, package install)",
		Command:     "wkprov provision --yes",
		Sudo:        false,
	},
	IDFontconfig: {
		Description: "Install fontconfig via apt",
		Command:     "sudo apt-get install -y fontconfig libxrender1",
		Sudo:        true,
	},
	IDXfonts: {
		Description: "Install X font packages via apt",
		Command:     "sudo apt-get install -y xfonts-75dpi xfonts-base",
		Sudo:        true,
	},
}

// GetFixCommand returns the fix command for a prerequisite.
func GetFixCommand(checkID string) *FixCommand {
	fix, ok := fixCommands[checkID]
	if !ok {
		return nil
	}
	return fix
}

// Fixer provides functionality to run fix commands.
type Fixer struct {
	executor CommandExecutor
}

// NewFixer creates a new Fixer.
func NewFixer() *Fixer {
	return &Fixer{executor: &RealExecutor{}}
}

// NewFixerWithExecutor creates a new Fixer with a custom executor.
func NewFixerWithExecutor(exec CommandExecutor) *Fixer {
	return &Fixer{executor: exec}
}

// RunFix executes a fix command.
func (f *Fixer) RunFix(fix *FixCommand) error {
	if fix == nil {
		return fmt.Errorf("no fix command available")
	}

	// Run the command through shell using the executor
	output, err := f.executor.CombinedOutput("sh", "-c", fix.Command)
	if err != nil {
		return fmt.Errorf("fix failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// CopyToClipboard copies the fix command to the system clipboard.
func (f *Fixer) CopyToClipboard(fix *FixCommand) error {
	if fix == nil {
		return fmt.Errorf("no fix command available")
	}

	if err := clipboard.WriteAll(fix.Command); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	return nil
}
