// Package ui formats terminal output for the testbed CLI.
//
// Status lines carry a coloured marker:
//   - Info:    → cyan arrow
//   - Success: ✔ green checkmark
//   - Fail:    ✘ red X
//   - Warn:    ○ yellow circle
//
// Everything goes to ui.Out, stderr by default, so stdout stays free for
// container output and machine-readable results. Tests swap Out and In.
//
//	ui.Header("checkout")
//	ui.Info("starting %d containers", 3)
//	ui.Binding("db", "5432/tcp", "0.0.0.0:5433")
//	ui.Footer()
package ui
