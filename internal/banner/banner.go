// Package banner renders the startup banner shown by the CLI.
package banner

import (
	"fmt"

	"github.com/gookit/color"
)

const art = `
   ___              __  __           __
  / _ | __ _  ___ _/ /_/ /  __ _____/ /_
 / __ |/  ' \/ -_) __/ _ \/ // (_-</ __/
/_/ |_/_/_/_/\__/\__/_//_/\_, /___/\__/
                         /___/ kombucha
`

// Banner returns the colored banner with the version appended.
func Banner(version string) string {
	return color.New(color.FgMagenta, color.OpBold).Render(art) +
		fmt.Sprintf("%s %s\n\n", color.Gray.Render("  chatbot"), version)
}
