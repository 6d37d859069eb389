package language

// Common romanized Bengali function words, question words and verb forms.
var banglishMarkers = map[string]bool{
	"ami": true, "amar": true, "amra": true, "amader": true, "tumi": true,
	"tomar": true, "apni": true, "apnar": true, "ki": true,
	"kivabe": true, "kibhabe": true, "kemne": true, "kothay": true, "kotha": true,
	"kobe": true, "keno": true, "koto": true, "kon": true, "kono": true,
	"korte": true, "korbo": true, "kori": true, "korbe": true, "kora": true,
	"korle": true, "lagbe": true, "lage": true, "hobe": true, "hoy": true,
	"hoye": true, "ache": true, "achhe": true, "nai": true, "nei": true,
	"na": true, "chai": true, "dorkar": true, "jonno": true, "jonne": true,
	"er": true, "theke": true, "kache": true, "niye": true, "dite": true,
	"pabo": true, "pete": true, "jabe": true, "jai": true, "bolun": true,
	"bolen": true, "janan": true, "janate": true, "ta": true, "ti": true,
	"gulo": true, "shob": true, "sob": true, "ekta": true, "naki": true,
	"kagoj": true, "kagojpotro": true, "nibondhon": true, "shonod": true,
	"toiri": true, "banate": true, "sarkari": true, "shorkari": true,
	"taka": true, "koyta": true, "lagche": true, "kivave": true,
}

var banglishSuffixes = []string{"chhe", "chhi", "echi", "iye", "bhabe", "gulo"}

// Frequent English function and question words.
var englishWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"what": true, "how": true, "where": true, "when": true, "which": true,
	"who": true, "why": true, "do": true, "does": true, "can": true,
	"i": true, "my": true, "me": true, "you": true, "your": true, "we": true,
	"to": true, "for": true, "of": true, "in": true, "on": true, "at": true,
	"and": true, "or": true, "with": true, "from": true, "get": true,
	"apply": true, "need": true, "required": true, "documents": true,
	"should": true, "will": true, "be": true, "it": true, "this": true,
	"that": true, "about": true, "there": true, "much": true, "many": true,
}
