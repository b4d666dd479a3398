// internal/platform/ui/banner.go
package ui

import (
	"fmt"

	"github.com/pterm/pterm"
)

// NetIntelBanner - Banner compacto para el arranque del servicio
const NetIntelBanner = `
╔══════════════════════════════════════════╗
║                                          ║
║    NETINTEL                         🛰   ║
║    Network Intelligence API              ║
║    ═════════════════════                 ║
║    Search · Resolve · Enrich · Seal      ║
║                                          ║
╚══════════════════════════════════════════╝
`

// StartupInfo son los datos mostrados al arrancar.
type StartupInfo struct {
	Version   string
	Addr      string
	Providers []string
	OutputDir string
	Workers   int
}

// ShowStartup imprime el banner y la configuración efectiva del servicio.
func ShowStartup(info StartupInfo) {
	pterm.Println(pterm.Cyan(NetIntelBanner))

	panel := fmt.Sprintf("Version: %s\n", pterm.Yellow(info.Version))
	panel += fmt.Sprintf("Listen:  %s\n", pterm.Cyan(info.Addr))
	panel += fmt.Sprintf("Output:  %s\n", info.OutputDir)
	panel += fmt.Sprintf("Workers: %d\n", info.Workers)
	panel += fmt.Sprintf("Providers: %v", info.Providers)

	pterm.DefaultBox.
		WithTitle("NetIntel").
		WithTitleTopCenter().
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		Println(panel)

	pterm.Println()
}
