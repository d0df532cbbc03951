package models

// PowerState is the sampled state of the monitored device.
type PowerState bool

// Power states.
const (
	PowerOff PowerState = false
	PowerOn  PowerState = true
)

func (s PowerState) String() string {
	if s == PowerOn {
		return "on"
	}
	return "off"
}
