package correction

import (
	"fmt"
	"strings"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/xrash/smetrics"
)

const portCodeMethod = "port_code_lookup"

// fuzzyAcceptScore is the minimum 0-100 similarity for a fuzzy match to be
// proposed.
const fuzzyAcceptScore = 85

// locodes is the embedded UN/LOCODE subset covering the major container
// ports. Deployments with a fuller gazetteer can register their own strategy
// over it.
var locodes = map[string]string{
	"CNSHA": "Shanghai",
	"CNNGB": "Ningbo",
	"CNSZX": "Shenzhen",
	"CNTAO": "Qingdao",
	"SGSIN": "Singapore",
	"KRPUS": "Busan",
	"NLRTM": "Rotterdam",
	"DEHAM": "Hamburg",
	"BEANR": "Antwerp",
	"USLAX": "Los Angeles",
	"USLGB": "Long Beach",
	"USNYC": "New York",
	"AEJEA": "Jebel Ali",
	"MYPKG": "Port Klang",
	"HKHKG": "Hong Kong",
	"TWKHH": "Kaohsiung",
	"JPTYO": "Tokyo",
	"JPYOK": "Yokohama",
	"GBFXT": "Felixstowe",
	"ESVLC": "Valencia",
	"ITGOA": "Genoa",
	"GRPIR": "Piraeus",
	"EGPSD": "Port Said",
	"PAONX": "Colon",
	"BRSSZ": "Santos",
	"INNSA": "Nhava Sheva",
	"LKCMB": "Colombo",
	"VNSGN": "Ho Chi Minh City",
	"THLCH": "Laem Chabang",
	"IDJKT": "Jakarta",
}

// abbreviations maps common three-letter port shorthand (IATA-ish city
// codes, carrier manifests, OCR output) to full UN/LOCODEs.
var abbreviations = map[string]string{
	"SHA": "CNSHA",
	"NGB": "CNNGB",
	"SZX": "CNSZX",
	"SIN": "SGSIN",
	"PUS": "KRPUS",
	"RTM": "NLRTM",
	"HAM": "DEHAM",
	"ANR": "BEANR",
	"LAX": "USLAX",
	"NYC": "USNYC",
	"HKG": "HKHKG",
	"TYO": "JPTYO",
	"YOK": "JPYOK",
	"VLC": "ESVLC",
	"GOA": "ITGOA",
	"PIR": "GRPIR",
	"SSZ": "BRSSZ",
	"CMB": "LKCMB",
	"SGN": "VNSGN",
	"JKT": "IDJKT",
}

// PortCode corrects a malformed or abbreviated port code. Resolution order:
// exact UN/LOCODE lookup, abbreviation lookup, country-assisted
// construction (ctx param "country"), then fuzzy matching against known
// codes and port names.
func PortCode(value any, ctx Context) models.CorrectionResult {
	raw, ok := value.(string)
	if !ok {
		return failure(value, portCodeMethod, "port code must be a string")
	}

	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return failure(value, portCodeMethod, "port code is empty")
	}

	if _, exact := locodes[code]; exact {
		return models.CorrectionResult{
			Success:    true,
			Original:   raw,
			Corrected:  code,
			Confidence: 100,
			Method:     portCodeMethod,
		}
	}

	if full, abbreviated := abbreviations[code]; abbreviated {
		return models.CorrectionResult{
			Success:    true,
			Original:   raw,
			Corrected:  full,
			Confidence: 90,
			Method:     portCodeMethod,
		}
	}

	country := strings.ToUpper(ctx.StringParam("country"))
	if country == "" {
		if c, ok := ctx.Record["country"].(string); ok {
			country = strings.ToUpper(c)
		}
	}

	if country != "" && len(code) == 3 {
		constructed := country + code
		if _, known := locodes[constructed]; known {
			return models.CorrectionResult{
				Success:    true,
				Original:   raw,
				Corrected:  constructed,
				Confidence: 88,
				Method:     portCodeMethod,
			}
		}
	}

	if best, score := fuzzyLookup(code); score >= fuzzyAcceptScore {
		alternatives := fuzzyAlternatives(code, best)

		return models.CorrectionResult{
			Success:      true,
			Original:     raw,
			Corrected:    best,
			Confidence:   score,
			Method:       portCodeMethod,
			Alternatives: alternatives,
			NeedsReview:  score < 95,
		}
	}

	return failure(value, portCodeMethod, fmt.Sprintf("no confident match for port code %q", raw))
}

// fuzzyLookup scores the input against every known code and port name and
// returns the best code with its 0-100 similarity.
func fuzzyLookup(input string) (string, int) {
	var bestCode string

	bestScore := 0

	for code, name := range locodes {
		score := similarity(input, code)
		if byName := similarity(input, strings.ToUpper(name)); byName > score {
			score = byName
		}

		if score > bestScore {
			bestScore = score
			bestCode = code
		}
	}

	return bestCode, bestScore
}

func fuzzyAlternatives(input, winner string) []any {
	var alternatives []any

	for code, name := range locodes {
		if code == winner {
			continue
		}

		score := similarity(input, code)
		if byName := similarity(input, strings.ToUpper(name)); byName > score {
			score = byName
		}

		if score >= fuzzyAcceptScore {
			alternatives = append(alternatives, code)
		}
	}

	return alternatives
}

func similarity(a, b string) int {
	return int(smetrics.JaroWinkler(a, b, 0.7, 4) * 100)
}
