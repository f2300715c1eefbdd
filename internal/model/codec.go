package model

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ msgpack.CustomEncoder = (*DeviceList)(nil)
	_ msgpack.CustomDecoder = (*DeviceList)(nil)
	_ json.Marshaler        = (*DeviceList)(nil)
	_ json.Unmarshaler      = (*DeviceList)(nil)
)

// EncodeMsgpack writes the list as an array in insertion order.
func (l *DeviceList) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(l.All())
}

func (l *DeviceList) DecodeMsgpack(dec *msgpack.Decoder) error {
	var devs []*DeviceCallback
	if err := dec.Decode(&devs); err != nil {
		return err
	}
	l.restore(devs)
	return nil
}

func (l *DeviceList) MarshalJSON() ([]byte, error) {
	devs := l.All()
	if devs == nil {
		devs = []*DeviceCallback{}
	}
	return json.Marshal(devs)
}

func (l *DeviceList) UnmarshalJSON(b []byte) error {
	var devs []*DeviceCallback
	if err := json.Unmarshal(b, &devs); err != nil {
		return err
	}
	l.restore(devs)
	return nil
}

// restore rebuilds the list from already disambiguated callbacks.
func (l *DeviceList) restore(devs []*DeviceCallback) {
	l.order = make([]string, 0, len(devs))
	l.byName = make(map[string]*DeviceCallback, len(devs))
	for _, d := range devs {
		if d == nil {
			continue
		}
		l.byName[d.Name] = d
		l.order = append(l.order, d.Name)
	}
}

// EncodeRuns serializes runs with msgpack.
func EncodeRuns(runs []*TestRun) ([]byte, error) {
	return msgpack.Marshal(runs)
}

// DecodeRuns is the inverse of EncodeRuns.
func DecodeRuns(b []byte) ([]*TestRun, error) {
	var runs []*TestRun
	if err := msgpack.Unmarshal(b, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
