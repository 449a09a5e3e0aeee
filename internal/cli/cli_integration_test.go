package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpodg/nfsprov/internal/testutils"
)

func TestExecCommand_Integration(t *testing.T) {
	ctx := context.Background()
	sshC := testutils.SetupSSHContainer(t, ctx)
	defer sshC.Container.Terminate(ctx)

	configPath := sshC.WriteConfig(t, testutils.ConfigFixture{})

	out, err := executeRoot(t, "exec", "--config", configPath, "--known-hosts", sshC.KnownHostsPath,
		sshC.Address, "--", "echo", "pong")
	require.NoError(t, err)
	assert.Contains(t, out, "pong")

	_, err = executeRoot(t, "exec", "--config", configPath, "--known-hosts", sshC.KnownHostsPath,
		sshC.Address, "--", "false")
	assert.ErrorContains(t, err, "command failed on")
}
