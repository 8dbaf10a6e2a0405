package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_LineEndingsAndWhitespace(t *testing.T) {
	input := "Line one\r\nLine   two\t\tend\rLine three\n\n\n\nLast   "
	assert.Equal(t, "Line one\nLine two end\nLine three\n\nLast", Normalize(input))
}

func TestNormalize_RepairsNumericTokens(t *testing.T) {
	assert.Equal(t, "02/01/2009 TESCO METRO -25.50", Normalize("O2/O1/2OO9 TESCO METRO -25.5O"))
	assert.Equal(t, "PAID 1,234.50, THANKS", Normalize("PAID 1,234.5O, THANKS"))
}

func TestNormalize_RestoresLetters(t *testing.T) {
	assert.Equal(t, "TESCO STORES", Normalize("TE5CO ST0RES"))
	assert.Equal(t, "BOOKSHOP", Normalize("B0OKSH0P"))
	assert.Equal(t, "coffee", Normalize("c0ffee"))
}

func TestNormalize_LeavesGenuineNumbersAlone(t *testing.T) {
	input := "12/05/2023 REF 100200300 1,000.00"
	assert.Equal(t, input, Normalize(input))
	assert.Equal(t, "A1 STORE", Normalize("A1 STORE"))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("\n\n\r\n"))
}

func TestNormalizeLayout_KeepsColumns(t *testing.T) {
	input := "Date      Description     Amount\r\n01/O2/2009\tCOFFEE\t4.50"
	expected := "Date      Description     Amount\n01/02/2009      COFFEE  4.50"
	assert.Equal(t, expected, NormalizeLayout(input))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitLines("a\r\nb\rc"))
}
