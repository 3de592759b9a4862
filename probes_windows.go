package parker

import "golang.org/x/sys/windows"

// WaitOnAddress is newer and finer-grained; keyed events cover every NT
// release since XP.
var nativeProbes = []probe{
	{facility: "WaitOnAddress/WakeByAddressSingle (Windows 8+)", create: newWaitAddressBackend},
	{facility: "NT keyed events (Windows XP+)", create: newKeyedEventBackend},
}

// findProcs reports the first proc that cannot be resolved.
func findProcs(procs ...*windows.LazyProc) error {
	for _, p := range procs {
		if err := p.Find(); err != nil {
			return err
		}
	}
	return nil
}
