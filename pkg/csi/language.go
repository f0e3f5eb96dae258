package csi

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrUnknownLanguageCode is returned when a code is not part of the vocabulary shared with the host
var ErrUnknownLanguageCode = errors.New("unknown language code")

// LanguageCode is an ISO 639-3 language code from the closed set the host understands.
// The set is versioned together with the host.
type LanguageCode string

const (
	// LanguageAfr is Afrikaans
	LanguageAfr LanguageCode = "afr"
	// LanguageAra is Arabic
	LanguageAra LanguageCode = "ara"
	// LanguageAze is Azerbaijani
	LanguageAze LanguageCode = "aze"
	// LanguageBel is Belarusian
	LanguageBel LanguageCode = "bel"
	// LanguageBen is Bengali
	LanguageBen LanguageCode = "ben"
	// LanguageBos is Bosnian
	LanguageBos LanguageCode = "bos"
	// LanguageBul is Bulgarian
	LanguageBul LanguageCode = "bul"
	// LanguageCat is Catalan
	LanguageCat LanguageCode = "cat"
	// LanguageCes is Czech
	LanguageCes LanguageCode = "ces"
	// LanguageCym is Welsh
	LanguageCym LanguageCode = "cym"
	// LanguageDan is Danish
	LanguageDan LanguageCode = "dan"
	// LanguageDeu is German
	LanguageDeu LanguageCode = "deu"
	// LanguageEll is Greek
	LanguageEll LanguageCode = "ell"
	// LanguageEng is English
	LanguageEng LanguageCode = "eng"
	// LanguageEpo is Esperanto
	LanguageEpo LanguageCode = "epo"
	// LanguageEst is Estonian
	LanguageEst LanguageCode = "est"
	// LanguageEus is Basque
	LanguageEus LanguageCode = "eus"
	// LanguageFas is Persian
	LanguageFas LanguageCode = "fas"
	// LanguageFin is Finnish
	LanguageFin LanguageCode = "fin"
	// LanguageFra is French
	LanguageFra LanguageCode = "fra"
	// LanguageGle is Irish
	LanguageGle LanguageCode = "gle"
	// LanguageGuj is Gujarati
	LanguageGuj LanguageCode = "guj"
	// LanguageHeb is Hebrew
	LanguageHeb LanguageCode = "heb"
	// LanguageHin is Hindi
	LanguageHin LanguageCode = "hin"
	// LanguageHrv is Croatian
	LanguageHrv LanguageCode = "hrv"
	// LanguageHun is Hungarian
	LanguageHun LanguageCode = "hun"
	// LanguageHye is Armenian
	LanguageHye LanguageCode = "hye"
	// LanguageInd is Indonesian
	LanguageInd LanguageCode = "ind"
	// LanguageIsl is Icelandic
	LanguageIsl LanguageCode = "isl"
	// LanguageIta is Italian
	LanguageIta LanguageCode = "ita"
	// LanguageJpn is Japanese
	LanguageJpn LanguageCode = "jpn"
	// LanguageKat is Georgian
	LanguageKat LanguageCode = "kat"
	// LanguageKaz is Kazakh
	LanguageKaz LanguageCode = "kaz"
	// LanguageKor is Korean
	LanguageKor LanguageCode = "kor"
	// LanguageLat is Latin
	LanguageLat LanguageCode = "lat"
	// LanguageLav is Latvian
	LanguageLav LanguageCode = "lav"
	// LanguageLit is Lithuanian
	LanguageLit LanguageCode = "lit"
	// LanguageLug is Ganda
	LanguageLug LanguageCode = "lug"
	// LanguageMar is Marathi
	LanguageMar LanguageCode = "mar"
	// LanguageMkd is Macedonian
	LanguageMkd LanguageCode = "mkd"
	// LanguageMon is Mongolian
	LanguageMon LanguageCode = "mon"
	// LanguageMri is Maori
	LanguageMri LanguageCode = "mri"
	// LanguageMsa is Malay
	LanguageMsa LanguageCode = "msa"
	// LanguageNld is Dutch
	LanguageNld LanguageCode = "nld"
	// LanguageNno is Norwegian Nynorsk
	LanguageNno LanguageCode = "nno"
	// LanguageNob is Norwegian Bokmål
	LanguageNob LanguageCode = "nob"
	// LanguagePan is Punjabi
	LanguagePan LanguageCode = "pan"
	// LanguagePol is Polish
	LanguagePol LanguageCode = "pol"
	// LanguagePor is Portuguese
	LanguagePor LanguageCode = "por"
	// LanguageRon is Romanian
	LanguageRon LanguageCode = "ron"
	// LanguageRus is Russian
	LanguageRus LanguageCode = "rus"
	// LanguageSlk is Slovak
	LanguageSlk LanguageCode = "slk"
	// LanguageSlv is Slovene
	LanguageSlv LanguageCode = "slv"
	// LanguageSna is Shona
	LanguageSna LanguageCode = "sna"
	// LanguageSom is Somali
	LanguageSom LanguageCode = "som"
	// LanguageSot is Sotho
	LanguageSot LanguageCode = "sot"
	// LanguageSpa is Spanish
	LanguageSpa LanguageCode = "spa"
	// LanguageSrp is Serbian
	LanguageSrp LanguageCode = "srp"
	// LanguageSqi is Albanian
	LanguageSqi LanguageCode = "sqi"
	// LanguageSwa is Swahili
	LanguageSwa LanguageCode = "swa"
	// LanguageSwe is Swedish
	LanguageSwe LanguageCode = "swe"
	// LanguageTam is Tamil
	LanguageTam LanguageCode = "tam"
	// LanguageTel is Telugu
	LanguageTel LanguageCode = "tel"
	// LanguageTgl is Tagalog
	LanguageTgl LanguageCode = "tgl"
	// LanguageTha is Thai
	LanguageTha LanguageCode = "tha"
	// LanguageTsn is Tswana
	LanguageTsn LanguageCode = "tsn"
	// LanguageTso is Tsonga
	LanguageTso LanguageCode = "tso"
	// LanguageTur is Turkish
	LanguageTur LanguageCode = "tur"
	// LanguageUkr is Ukrainian
	LanguageUkr LanguageCode = "ukr"
	// LanguageUrd is Urdu
	LanguageUrd LanguageCode = "urd"
	// LanguageVie is Vietnamese
	LanguageVie LanguageCode = "vie"
	// LanguageXho is Xhosa
	LanguageXho LanguageCode = "xho"
	// LanguageYor is Yoruba
	LanguageYor LanguageCode = "yor"
	// LanguageZho is Chinese
	LanguageZho LanguageCode = "zho"
	// LanguageZul is Zulu
	LanguageZul LanguageCode = "zul"
)

var languageCodes = []LanguageCode{
	LanguageAfr, LanguageAra, LanguageAze, LanguageBel, LanguageBen, LanguageBos,
	LanguageBul, LanguageCat, LanguageCes, LanguageCym, LanguageDan, LanguageDeu,
	LanguageEll, LanguageEng, LanguageEpo, LanguageEst, LanguageEus, LanguageFas,
	LanguageFin, LanguageFra, LanguageGle, LanguageGuj, LanguageHeb, LanguageHin,
	LanguageHrv, LanguageHun, LanguageHye, LanguageInd, LanguageIsl, LanguageIta,
	LanguageJpn, LanguageKat, LanguageKaz, LanguageKor, LanguageLat, LanguageLav,
	LanguageLit, LanguageLug, LanguageMar, LanguageMkd, LanguageMon, LanguageMri,
	LanguageMsa, LanguageNld, LanguageNno, LanguageNob, LanguagePan, LanguagePol,
	LanguagePor, LanguageRon, LanguageRus, LanguageSlk, LanguageSlv, LanguageSna,
	LanguageSom, LanguageSot, LanguageSpa, LanguageSrp, LanguageSqi, LanguageSwa,
	LanguageSwe, LanguageTam, LanguageTel, LanguageTgl, LanguageTha, LanguageTsn,
	LanguageTso, LanguageTur, LanguageUkr, LanguageUrd, LanguageVie, LanguageXho,
	LanguageYor, LanguageZho, LanguageZul,
}

var languageCodeSet = func() map[LanguageCode]struct{} {
	set := make(map[LanguageCode]struct{}, len(languageCodes))
	for _, code := range languageCodes {
		set[code] = struct{}{}
	}
	return set
}()

// AllLanguageCodes returns every supported language code in vocabulary order
func AllLanguageCodes() []LanguageCode {
	return append([]LanguageCode(nil), languageCodes...)
}

// ParseLanguageCode parses a code strictly. Only the exact lowercase codes of
// the vocabulary are accepted.
func ParseLanguageCode(s string) (LanguageCode, error) {
	code := LanguageCode(s)
	if _, ok := languageCodeSet[code]; !ok {
		return "", errors.Wrapf(ErrUnknownLanguageCode, "%q", s)
	}
	return code, nil
}

// String returns the textual code
func (l LanguageCode) String() string {
	return string(l)
}

// Valid reports whether the code is part of the vocabulary
func (l LanguageCode) Valid() bool {
	_, ok := languageCodeSet[l]
	return ok
}

// UnmarshalJSON decodes a code, rejecting anything outside the vocabulary
func (l *LanguageCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "language code must be a string")
	}
	code, err := ParseLanguageCode(s)
	if err != nil {
		return err
	}
	*l = code
	return nil
}

// SelectLanguageRequest asks which of the candidate languages the text is written in
type SelectLanguageRequest struct {
	Text      string         `json:"text"`
	Languages []LanguageCode `json:"languages" jsonschema:"nullable"`
}

// NewSelectLanguageRequest creates a language selection request
func NewSelectLanguageRequest(text string, languages ...LanguageCode) SelectLanguageRequest {
	return SelectLanguageRequest{Text: text, Languages: append([]LanguageCode{}, languages...)}
}
