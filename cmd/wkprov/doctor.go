package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/wkprov/pkg/doctor"
	"github.com/jaspreet-dot-casa/wkprov/pkg/ui"
)

// newDoctorCmd creates the doctor subcommand
func newDoctorCmd() *cobra.Command {
	var fix string
	var copyFix string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check host prerequisites for wkhtmltopdf",
		Long: `Check that the packaging tools (apt-get, dpkg) and the rendering stack
(wkhtmltopdf, fontconfig, xfonts) are installed, and show fix commands
for anything missing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fix != "" {
				return runDoctorFix(fix)
			}
			if copyFix != "" {
				return runDoctorCopy(copyFix)
			}
			return runDoctor(cmd)
		},
	}

	cmd.Flags().StringVar(&fix, "fix", "", "Run the fix command for a check ID")
	cmd.Flags().StringVar(&copyFix, "copy", "", "Copy the fix command for a check ID to the clipboard")

	return cmd
}

func runDoctor(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	checker := doctor.NewChecker()
	groups := checker.CheckAllAsync()

	fmt.Fprintln(out, ui.TitleStyle.Render("wkprov doctor"))
	fmt.Fprintln(out)

	for _, group := range groups {
		fmt.Fprintln(out, ui.InfoStyle.Render(group.Name))
		for _, check := range group.Checks {
			icon := ui.StatusIcon(check.Status == doctor.StatusOK)
			if check.Status == doctor.StatusWarning {
				icon = ui.WarningStyle.Render("!")
			}
			fmt.Fprintf(out, "  %s %-14s %s\n", icon, check.Name, check.Message)
			if check.Status != doctor.StatusOK && check.FixCommand != nil {
				fmt.Fprintf(out, "      %s\n", ui.SubtitleStyle.Render("fix: "+check.FixCommand.Command))
			}
		}
		fmt.Fprintln(out)
	}

	summary := checker.GetSummary(groups)
	if checker.HasIssues(groups) {
		fmt.Fprintln(out, ui.ErrorStyle.Render(fmt.Sprintf("%d of %d checks need attention", summary.Missing+summary.Errors, summary.Total)))
		fmt.Fprintln(out, ui.SubtitleStyle.Render("Run 'wkprov doctor --fix <id>' to apply a fix, or 'wkprov provision' for a full install."))
		return fmt.Errorf("host is missing prerequisites")
	}

	fmt.Fprintln(out, ui.SuccessStyle.Render(fmt.Sprintf("All %d checks passed", summary.Total)))
	return nil
}

func runDoctorFix(checkID string) error {
	fix := doctor.GetFixCommand(checkID)
	if fix == nil {
		return fmt.Errorf("no fix available for check %q", checkID)
	}

	fmt.Printf("Running: %s\n", fix.Command)

	fixer := doctor.NewFixer()
	if err := fixer.RunFix(fix); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	// Re-run the single check so the user sees whether the fix took.
	check := doctor.NewChecker().GetCheck(checkID)
	fmt.Printf("%s %s: %s\n", ui.StatusIcon(check.Status == doctor.StatusOK), check.Name, check.Message)
	if check.Status != doctor.StatusOK {
		return fmt.Errorf("%s is still %s after the fix", check.Name, check.Status)
	}

	return nil
}

func runDoctorCopy(checkID string) error {
	fix := doctor.GetFixCommand(checkID)
	if fix == nil {
		return fmt.Errorf("no fix available for check %q", checkID)
	}

	fixer := doctor.NewFixer()
	if err := fixer.CopyToClipboard(fix); err != nil {
		return fmt.Errorf("could not copy to clipboard: %w", err)
	}

	fmt.Printf("%s Copied to clipboard: %s\n", ui.StatusIcon(true), fix.Command)
	return nil
}
