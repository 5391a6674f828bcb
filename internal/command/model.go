package command

// Model ids as answered to ModelCommand: a fixed 0xC220 prefix followed by
// one byte naming the hardware revision.
var models = map[uint64]string{
	0xc22013: "GT-100",
	0xc22014: "GT-200",
	0xc22015: "GT-120",
	0xc22017: "GT-200e",
}

func modelName(id uint64) (string, bool) {
	name, ok := models[id]
	return name, ok
}
