package message

import "bytes"

// Asset is the content of the legacy asset message used to tag swaps.
// Index is only meaningful for protocols carrying an index byte.
type Asset struct {
	Protocol ProtocolID
	AssetID  string
	Index    *uint8
	Qty      uint64
}

// EncodeAsset serializes the message as
// prefix || protocol || asset id (fixed width) || [index] || uleb128(qty).
// Asset ids longer than the protocol width are truncated.
func EncodeAsset(a Asset) ([]byte, error) {
	p, err := LookupProtocol(a.Protocol)
	if err != nil {
		return nil, err
	}
	if p.IndexByteWidth > 0 && a.Index == nil {
		return nil, ErrInvalidIndex
	}

	assetID := make([]byte, p.AssetIDWidth)
	copy(assetID, a.AssetID)

	msg := make([]byte, 0, len(Prefix)+1+p.AssetIDWidth+p.IndexByteWidth+10)
	msg = append(msg, Prefix...)
	msg = append(msg, byte(p.ID))
	msg = append(msg, assetID...)
	if p.IndexByteWidth > 0 {
		msg = append(msg, *a.Index)
	}
	msg = append(msg, EncodeULEB128(a.Qty)...)
	return msg, nil
}

// DecodeAsset parses a legacy asset message. The protocol is read from the
// message itself.
func DecodeAsset(msg []byte) (*Asset, error) {
	if !bytes.HasPrefix(msg, []byte(Prefix)) {
		return nil, ErrInvalidPrefix
	}
	body := msg[len(Prefix):]
	if len(body) < 1 {
		return nil, ErrMalformedMessage
	}

	p, err := LookupProtocol(ProtocolID(body[0]))
	if err != nil {
		return nil, err
	}
	body = body[1:]

	if len(body) < p.AssetIDWidth+p.IndexByteWidth+1 {
		return nil, ErrMalformedMessage
	}

	asset := &Asset{
		Protocol: p.ID,
		AssetID:  string(bytes.TrimRight(body[:p.AssetIDWidth], "\x00")),
	}
	body = body[p.AssetIDWidth:]

	if p.IndexByteWidth > 0 {
		index := body[0]
		asset.Index = &index
		body = body[p.IndexByteWidth:]
	}

	qty, _, err := DecodeULEB128(body)
	if err != nil {
		return nil, err
	}
	asset.Qty = qty

	return asset, nil
}
