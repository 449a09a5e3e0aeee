package taskutil

import (
	"context"
	"testing"

	"github.com/tpodg/nfsprov/internal/remote"
)

func fixedExecutor(res remote.CommandResult, seen *[]string) func(context.Context, string) remote.CommandResult {
	return func(ctx context.Context, command string) remote.CommandResult {
		*seen = append(*seen, command)
		return res
	}
}

func TestSudoPrefix(t *testing.T) {
	cases := []struct {
		name    string
		result  remote.CommandResult
		want    string
		wantErr bool
	}{
		{name: "root", result: remote.CommandResult{Succeeded: true, Stdout: "0\n"}, want: ""},
		{name: "regular_user", result: remote.CommandResult{Succeeded: true, Stdout: "1000\n"}, want: "sudo -n "},
		{name: "failure", result: remote.CommandResult{Stderr: "id: not found"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen []string
			got, err := SudoPrefix(context.Background(), fixedExecutor(tc.result, &seen))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SudoPrefix failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected prefix %q, got %q", tc.want, got)
			}
			if len(seen) != 1 || seen[0] != "id -u" {
				t.Fatalf("unexpected commands %v", seen)
			}
		})
	}
}

func TestElevate(t *testing.T) {
	if got := Elevate("", "exportfs -av"); got != "exportfs -av" {
		t.Fatalf("expected command unchanged for root, got %q", got)
	}
	got := Elevate("sudo -n ", "mkdir -p /srv/nfs && chmod 777 /srv/nfs")
	want := "sudo -n sh -c 'mkdir -p /srv/nfs && chmod 777 /srv/nfs'"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestElevated(t *testing.T) {
	var seen []string
	exec := Elevated("sudo -n ", fixedExecutor(remote.CommandResult{Succeeded: true}, &seen))
	exec(context.Background(), "exportfs -av")

	if len(seen) != 1 || seen[0] != "sudo -n sh -c 'exportfs -av'" {
		t.Fatalf("unexpected commands %v", seen)
	}
}
