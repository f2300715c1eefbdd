package model

// Phase is one named segment of a run's timeline.
type Phase struct {
	Name    string      `msgpack:"name" json:"name"`
	Order   int         `msgpack:"order" json:"order"`
	Start   float64     `msgpack:"start" json:"start"`
	End     float64     `msgpack:"end" json:"end"`
	Color   string      `msgpack:"color" json:"color"`
	Devices *DeviceList `msgpack:"devices" json:"devices"`
	Rows    int         `msgpack:"rows" json:"rows"`
}

func NewPhase(name string, order int, color string) *Phase {
	return &Phase{
		Name:    name,
		Order:   order,
		Start:   Unset,
		End:     Unset,
		Color:   color,
		Devices: NewDeviceList(),
	}
}

// Contains reports whether t lies in the phase window, inclusive.
func (p *Phase) Contains(t float64) bool {
	return p.Start <= t && t <= p.End
}

// Group is the phase family used to resolve parents: phases sharing the
// first letter of their name ("suspend*", "resume*") form one group.
func Group(phase string) byte {
	if phase == "" {
		return 0
	}
	return phase[0]
}
