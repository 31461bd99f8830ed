package resolution

import (
	"regexp"
	"sort"
	"strings"

	"receipt-resolver-backend/entities"
)

// Confidence table for extracted codes. Checksum-valid retail barcodes
// rank above context-free digit runs, so the orchestrator tries the most
// trustworthy codes first.
const (
	confidenceChecksumValid = 0.95
	confidenceEAN8Valid     = 0.90
	confidencePLUPrefixed   = 0.70
	confidenceUPCE          = 0.60
	confidencePLUBare       = 0.55
	confidenceStoreSKU      = 0.50
	confidenceChecksumFail  = 0.30
)

type codePattern struct {
	re       *regexp.Regexp
	codeType entities.ProductCodeType
	// prefixed marks patterns whose surrounding context (e.g. "PLU#")
	// identifies the code type explicitly.
	prefixed bool
}

var codePatterns = []codePattern{
	{regexp.MustCompile(`(?i)\bPLU[:\s#]*(\d{4,5})\b`), entities.CodePLU, true},
	{regexp.MustCompile(`#(\d{4,5})\b`), entities.CodePLU, true},
	{regexp.MustCompile(`\b(\d{13})\b`), entities.CodeEAN13, false},
	{regexp.MustCompile(`\b(\d{12})\b`), entities.CodeUPCA, false},
	{regexp.MustCompile(`\b(\d{1,6}[-\s]\d{5,6})\b`), entities.CodeUPCA, false},
	{regexp.MustCompile(`\b(\d{8})\b`), entities.CodeEAN8, false},
	{regexp.MustCompile(`\b(\d{4,5})\b`), entities.CodePLU, false},
	{regexp.MustCompile(`\b([A-Z]{2,4}-?\d{5,8})\b`), entities.CodeStoreSKU, false},
}

type candidate struct {
	code entities.ExtractedProductCode
	// byte offsets into the scanned text, used for ordering and overlap
	// resolution
	start, end int
}

type CodeExtractor struct{}

func NewCodeExtractor() *CodeExtractor {
	return &CodeExtractor{}
}

// ExtractCodes scans raw OCR text for product codes. The result preserves
// the order of appearance in the text, including duplicate occurrences;
// each hit reflects a distinct OCR read. Deterministic for identical input.
func (e *CodeExtractor) ExtractCodes(text string) entities.ExtractedCodeList {
	if text == "" {
		return nil
	}

	var candidates []candidate
	for _, p := range codePatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			// loc[2:4] is the first capture group
			raw := text[loc[2]:loc[3]]
			normalized := normalizeCode(raw, p.codeType)
			if normalized == "" {
				continue
			}

			code, ok := e.classify(normalized, p)
			if !ok {
				continue
			}
			code.SourceText = text[loc[0]:loc[1]]
			candidates = append(candidates, candidate{code: code, start: loc[0], end: loc[1]})
		}
	}

	candidates = resolveOverlaps(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].start < candidates[j].start
	})

	codes := make(entities.ExtractedCodeList, 0, len(candidates))
	for _, c := range candidates {
		codes = append(codes, c.code)
	}
	if len(codes) == 0 {
		return nil
	}
	return codes
}

func (e *CodeExtractor) classify(code string, p codePattern) (entities.ExtractedProductCode, bool) {
	out := entities.ExtractedProductCode{Code: code, CodeType: p.codeType}

	switch p.codeType {
	case entities.CodeUPCA:
		if len(code) != 12 {
			return out, false
		}
		if ValidateUPCChecksum(code) {
			out.Confidence = confidenceChecksumValid
		} else {
			out.Confidence = confidenceChecksumFail
		}
	case entities.CodeEAN13:
		if len(code) != 13 {
			return out, false
		}
		if ValidateEANChecksum(code) {
			out.Confidence = confidenceChecksumValid
		} else {
			out.Confidence = confidenceChecksumFail
		}
	case entities.CodeEAN8:
		if len(code) != 8 {
			return out, false
		}
		if ValidateEAN8Checksum(code) {
			out.Confidence = confidenceEAN8Valid
		} else {
			// An 8-digit run failing the EAN-8 checksum may still be a
			// compressed UPC-E, which has no simple check here.
			out.CodeType = entities.CodeUPCE
			out.Confidence = confidenceUPCE
		}
	case entities.CodePLU:
		if len(code) < 4 || len(code) > 5 {
			return out, false
		}
		if p.prefixed {
			out.Confidence = confidencePLUPrefixed
		} else {
			out.Confidence = confidencePLUBare
		}
	case entities.CodeStoreSKU:
		out.Confidence = confidenceStoreSKU
	case entities.CodeUPCE:
		out.Confidence = confidenceUPCE
	}

	return out, true
}

// resolveOverlaps drops candidates fully or partially covered by a longer
// higher-confidence span. A 12-digit UPC also matches the bare PLU and
// EAN-8 patterns on its substrings; the longer checksum-valid match wins.
func resolveOverlaps(candidates []candidate) []candidate {
	if len(candidates) < 2 {
		return candidates
	}

	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		li, lj := ranked[i].end-ranked[i].start, ranked[j].end-ranked[j].start
		if li != lj {
			return li > lj
		}
		return ranked[i].code.Confidence > ranked[j].code.Confidence
	})

	var kept []candidate
	for _, c := range ranked {
		overlapped := false
		for _, k := range kept {
			if c.start < k.end && k.start < c.end && !(c.start == k.start && c.end == k.end) {
				overlapped = true
				break
			}
		}
		// Identical spans from different patterns keep only the first
		// (longest/highest confidence) classification.
		for _, k := range kept {
			if c.start == k.start && c.end == k.end {
				overlapped = true
				break
			}
		}
		if !overlapped {
			kept = append(kept, c)
		}
	}
	return kept
}

func normalizeCode(raw string, codeType entities.ProductCodeType) string {
	if codeType == entities.CodeStoreSKU {
		return strings.ToUpper(strings.ReplaceAll(raw, "-", ""))
	}
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// ValidateUPCChecksum checks the UPC-A check digit: odd positions weighted
// by 3 plus even positions, mod 10.
func ValidateUPCChecksum(code string) bool {
	if len(code) != 12 || !allDigits(code) {
		return false
	}
	oddSum, evenSum := 0, 0
	for i := 0; i < 11; i++ {
		d := int(code[i] - '0')
		if i%2 == 0 {
			oddSum += d
		} else {
			evenSum += d
		}
	}
	check := (10 - (oddSum*3+evenSum)%10) % 10
	return check == int(code[11]-'0')
}

// ValidateEANChecksum checks the EAN-13 check digit with alternating
// weights of 1 and 3.
func ValidateEANChecksum(code string) bool {
	if len(code) != 13 || !allDigits(code) {
		return false
	}
	total := 0
	for i := 0; i < 12; i++ {
		d := int(code[i] - '0')
		if i%2 == 0 {
			total += d
		} else {
			total += d * 3
		}
	}
	check := (10 - total%10) % 10
	return check == int(code[12]-'0')
}

// ValidateEAN8Checksum checks the EAN-8 check digit; weights start at 3
// for the first digit.
func ValidateEAN8Checksum(code string) bool {
	if len(code) != 8 || !allDigits(code) {
		return false
	}
	total := 0
	for i := 0; i < 7; i++ {
		d := int(code[i] - '0')
		if i%2 == 0 {
			total += d * 3
		} else {
			total += d
		}
	}
	check := (10 - total%10) % 10
	return check == int(code[7]-'0')
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
