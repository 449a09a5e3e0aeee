package nfs

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/tpodg/nfsprov/internal/strutil"
)

//go:embed commands/*.tmpl
var commandsFS embed.FS

var commandTemplates = template.Must(template.New("nfs").Funcs(template.FuncMap{
	"shellArg": strutil.ShellArg,
}).Option("missingkey=error").ParseFS(commandsFS, "commands/*.tmpl"))

func renderCommand(name string, data any) (string, error) {
	var buf strings.Builder
	if err := commandTemplates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("render %s command: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func refreshIndexCommand() (string, error) {
	return renderCommand("refresh_index", nil)
}

func installPackageCommand(pkg string) (string, error) {
	return renderCommand("install_package", struct{ Package string }{pkg})
}

func restartServiceCommands(services []string) ([]string, error) {
	commands := make([]string, 0, len(services))
	for _, service := range services {
		cmd, err := renderCommand("restart_service", struct{ Service string }{service})
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}
