package nfs

// State is a stage of a role orchestration run.
type State int

const (
	StateRequirementsCheck State = iota
	StatePreInstall
	StateInstallPackages
	StatePostInstall
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRequirementsCheck:
		return "requirements check"
	case StatePreInstall:
		return "pre_pkg_install"
	case StateInstallPackages:
		return "install_pkgs"
	case StatePostInstall:
		return "post_pkg_install"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
