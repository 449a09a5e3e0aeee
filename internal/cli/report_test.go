package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpodg/nfsprov/internal/nfs"
	"github.com/tpodg/nfsprov/internal/remote"
	"github.com/tpodg/nfsprov/internal/task"
)

func failedDiagnostics() nfs.Diagnostics {
	steps := task.NewStepResult()
	steps.Add("nfs-kernel-server", remote.CommandResult{Succeeded: true, Stdout: "Setting up nfs-kernel-server\n"})
	steps.Add("nfs-common", remote.CommandResult{Succeeded: false, Stderr: "E: Unable to locate package nfs-common\n"})
	return nfs.Diagnostics{
		State:   nfs.StateInstallPackages,
		Message: "NfsServer failed in install_pkgs state",
		Steps:   steps,
	}
}

func TestParseFormat(t *testing.T) {
	f, err := parseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, formatYAML, f)

	_, err = parseFormat("json")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestNewReport(t *testing.T) {
	o := nfs.New(nfs.RoleServer, "web1", "", nil, nil)

	r := newReport(o, false, failedDiagnostics())

	assert.Equal(t, "NfsServer", r.Role)
	assert.Equal(t, "web1", r.Host)
	assert.False(t, r.Succeeded)
	assert.Equal(t, "install_pkgs", r.State)
	require.Len(t, r.Steps, 2)
	assert.Equal(t, "nfs-kernel-server", r.Steps[0].Step)
	assert.Equal(t, "nfs-common", r.Steps[1].Step)
	assert.False(t, r.Steps[1].Succeeded)
}

func TestNewReportWithError(t *testing.T) {
	o := nfs.New(nfs.RoleClient, "web2", "nfs1", nil, nil)
	diag := nfs.Diagnostics{
		State:   nfs.StateRequirementsCheck,
		Message: "NfsClient failed in requirements check state",
		Err:     errors.New("connection refused"),
	}

	r := newReport(o, false, diag)

	assert.Equal(t, "connection refused", r.Error)
	assert.Empty(t, r.Steps)
}

func TestWriteReportText(t *testing.T) {
	o := nfs.New(nfs.RoleServer, "web1", "", nil, nil)
	var buf bytes.Buffer

	require.NoError(t, writeReport(&buf, formatText, newReport(o, false, failedDiagnostics())))

	want := "NfsServer failed in install_pkgs state\n" +
		"  [ok] nfs-kernel-server\n" +
		"  [FAILED] nfs-common\n" +
		"    E: Unable to locate package nfs-common\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReportYAML(t *testing.T) {
	o := nfs.New(nfs.RoleServer, "web1", "", nil, nil)
	var buf bytes.Buffer

	require.NoError(t, writeReport(&buf, formatYAML, newReport(o, false, failedDiagnostics())))

	var decoded report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "install_pkgs", decoded.State)
	require.Len(t, decoded.Steps, 2)
	assert.Equal(t, "nfs-common", decoded.Steps[1].Step)
	assert.Contains(t, decoded.Steps[1].Stderr, "Unable to locate package")
}

func TestWriteReportSuccess(t *testing.T) {
	o := nfs.New(nfs.RoleServer, "web1", "", nil, nil)
	var buf bytes.Buffer

	diag := nfs.Diagnostics{State: nfs.StateDone, Message: "NfsServer deployed"}
	require.NoError(t, writeReport(&buf, formatText, newReport(o, true, diag)))

	assert.Equal(t, "NfsServer deployed\n", buf.String())
}
