package csi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllLanguageCodes(t *testing.T) {
	codes := AllLanguageCodes()
	require.Len(t, codes, 75)
	assert.Equal(t, LanguageAfr, codes[0])
	assert.Equal(t, LanguageZul, codes[len(codes)-1])

	seen := make(map[LanguageCode]bool, len(codes))
	for _, code := range codes {
		assert.Len(t, code.String(), 3)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}

	codes[0] = "xxx"
	assert.Equal(t, LanguageAfr, AllLanguageCodes()[0])
}

func TestParseLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected LanguageCode
		wantErr  bool
	}{
		{input: "deu", expected: LanguageDeu},
		{input: "eng", expected: LanguageEng},
		{input: "zul", expected: LanguageZul},
		{input: "de", wantErr: true},
		{input: "DEU", wantErr: true},
		{input: "", wantErr: true},
		{input: "klingon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			code, err := ParseLanguageCode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownLanguageCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, code)
			assert.True(t, code.Valid())
		})
	}
}

func TestLanguageCodeJSON(t *testing.T) {
	data, err := json.Marshal(NewSelectLanguageRequest("Bonjour", LanguageFra, LanguageEng))
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"Bonjour","languages":["fra","eng"]}`, string(data))

	var request SelectLanguageRequest
	require.NoError(t, json.Unmarshal(data, &request))
	assert.Equal(t, []LanguageCode{LanguageFra, LanguageEng}, request.Languages)

	var code *LanguageCode
	require.NoError(t, json.Unmarshal([]byte(`null`), &code))
	assert.Nil(t, code)

	err = json.Unmarshal([]byte(`"fr"`), &code)
	assert.ErrorIs(t, err, ErrUnknownLanguageCode)
}
