package enums

// Tone classifies users and messages by the grammatical gender a message text
// is written in. It controls which catalog entries a user may receive.
type Tone string

const (
	ToneFemale  Tone = "female"
	ToneMale    Tone = "male"
	ToneNeutral Tone = "neutral"
)

var validTones = []Tone{ToneFemale, ToneMale, ToneNeutral}

// IsValid checks whether the value matches the canonical enum.
func (t Tone) IsValid() bool {
	for _, candidate := range validTones {
		if candidate == t {
			return true
		}
	}
	return false
}

// NormalizeTone maps raw strings onto the enum. Unrecognized or empty values
// resolve to the female default, matching the user-record default.
func NormalizeTone(value string) Tone {
	tone := Tone(value)
	if tone.IsValid() {
		return tone
	}
	return ToneFemale
}
