package version

const (
	Phase0 = iota
	Altair
	Bellatrix
	Capella
	Deneb
	Fulu
)

func String(version int) string {
	switch version {
	case Phase0:
		return "phase0"
	case Altair:
		return "altair"
	case Bellatrix:
		return "bellatrix"
	case Capella:
		return "capella"
	case Deneb:
		return "deneb"
	case Fulu:
		return "fulu"
	default:
		return "unknown version"
	}
}
