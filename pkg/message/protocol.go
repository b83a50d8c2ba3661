package message

// Prefix tags every OpenBook message.
const Prefix = "OB"

// ProtocolID identifies the asset protocol an asset message refers to.
type ProtocolID uint8

const (
	XCP ProtocolID = iota
	ORDINALS
)

// Protocol holds the fixed layout parameters of an asset protocol.
type Protocol struct {
	ID             ProtocolID
	Name           string
	AssetIDWidth   int
	IndexByteWidth int
}

var protocols = map[ProtocolID]Protocol{
	XCP: {
		ID:             XCP,
		Name:           "XCP",
		AssetIDWidth:   20,
		IndexByteWidth: 0,
	},
	ORDINALS: {
		ID:             ORDINALS,
		Name:           "ORDINALS",
		AssetIDWidth:   64,
		IndexByteWidth: 1,
	},
}

// LookupProtocol returns the layout parameters for the given id.
func LookupProtocol(id ProtocolID) (Protocol, error) {
	p, ok := protocols[id]
	if !ok {
		return Protocol{}, ErrUnknownProtocol
	}
	return p, nil
}

func (id ProtocolID) String() string {
	if p, ok := protocols[id]; ok {
		return p.Name
	}
	return "UNKNOWN"
}

// Version holds the parameters bound to a protocol version.
type Version struct {
	Number   uint8
	Timelock uint32
}

// ListingTimelock is the locktime every listing transaction carries. The
// indexer uses it to cheaply filter listing candidates.
const ListingTimelock uint32 = 800

var versions = map[uint8]Version{
	0: {Number: 0, Timelock: ListingTimelock},
}

// CurrentVersion returns the protocol version used when building listings.
func CurrentVersion() Version {
	return versions[0]
}
