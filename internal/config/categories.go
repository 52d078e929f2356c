package config

// CategoryWeights orders command categories in help output.
var CategoryWeights = map[string]int{
	"🕯️ Information": 0,
	"🎵 Music":        10,
	"🛠️ Maintenance": 60,
}
