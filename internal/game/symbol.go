package game

// Symbol is one selectable glyph. Symbols compare by ID.
type Symbol struct {
	ID    string
	Icon  string
	Name  string
	Color string // #rrggbb
}

// Catalog is the fixed, ordered symbol set. Lower levels draw from a prefix.
var Catalog = []Symbol{
	{ID: "skull", Icon: "💀", Name: "Skull", Color: "#ff4444"},
	{ID: "fire", Icon: "🔥", Name: "Hellfire", Color: "#ff6600"},
	{ID: "chain", Icon: "⛓️", Name: "Chain", Color: "#888888"},
	{ID: "eye", Icon: "👁️", Name: "Obsidian Gaze", Color: "#aa44ff"},
	{ID: "crown", Icon: "👑", Name: "Crown", Color: "#ffcc00"},
	{ID: "moon", Icon: "🌙", Name: "Dark Moon", Color: "#6644ff"},
	{ID: "star", Icon: "⭐", Name: "Fallen Star", Color: "#ffaa00"},
	{ID: "bolt", Icon: "⚡", Name: "Lightning", Color: "#ffff00"},
	{ID: "spider", Icon: "🕷️", Name: "Spider", Color: "#ff0066"},
	{ID: "bat", Icon: "🦇", Name: "Bat", Color: "#9933ff"},
	{ID: "snake", Icon: "🐍", Name: "Serpent", Color: "#00ff66"},
	{ID: "diamond", Icon: "💎", Name: "Blood Diamond", Color: "#ff0044"},
}

// Quotes are the intro-screen taglines, cycled by level.
var Quotes = []string{
	"Born from the void, not just a pretty face",
	"Obsidian gaze, cutting through the lies",
	"Chrome claws in the night",
	"Breaking the mold with the hellfire light",
	"EVOLVED!",
	"Now we burning through",
	"We the darkness baby, let's go",
	"Watch me grinding, about to leave my mark",
	"Break the chains of perception",
	"In this digital age",
	"Turning a wicked page",
	"INFERNAL",
	"Devil of the digital",
}

// QuoteForLevel returns the tagline shown before the given level.
func QuoteForLevel(level int) string {
	if level < 1 {
		level = 1
	}
	return Quotes[(level-1)%len(Quotes)]
}

// SymbolByID looks up a catalog symbol.
func SymbolByID(id string) (Symbol, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Symbol{}, false
}
