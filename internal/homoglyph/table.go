package homoglyph

// confusables maps ASCII letters and digits to code points from other
// scripts that render near-identically in common fonts. No entry contains
// its own key.
var confusables = map[rune][]rune{
	'a': {'а', 'α'},
	'A': {'А', 'Α'},
	'b': {'Ƅ'},
	'B': {'В', 'Β'},
	'c': {'с', 'ϲ'},
	'C': {'С', 'Ϲ'},
	'd': {'ԁ'},
	'e': {'е', 'ε'},
	'E': {'Е', 'Ε'},
	'g': {'ɡ'},
	'h': {'һ'},
	'H': {'Н', 'Η'},
	'i': {'і', 'ι'},
	'I': {'І', 'Ι'},
	'j': {'ј'},
	'J': {'Ј'},
	'k': {'κ'},
	'K': {'Κ', 'К'},
	'l': {'ӏ', 'I'},
	'm': {'м'},
	'M': {'М', 'Μ'},
	'n': {'ո'},
	'N': {'Ν'},
	'o': {'о', 'ο'},
	'O': {'О', 'Ο'},
	'p': {'р', 'ρ'},
	'P': {'Р', 'Ρ'},
	'q': {'զ'},
	's': {'ѕ'},
	'S': {'Ѕ'},
	't': {'τ'},
	'T': {'Т', 'Τ'},
	'u': {'υ'},
	'v': {'ν'},
	'w': {'ω'},
	'x': {'х', 'χ'},
	'X': {'Х', 'Χ'},
	'y': {'у', 'γ'},
	'Y': {'Υ', 'Ү'},
	'z': {'ʐ'},
	'Z': {'Ζ'},
	'0': {'О', 'Ο'},
	'1': {'І', 'ӏ'},
	'3': {'З'},
	'5': {'Ƽ'},
	'6': {'б'},
}
