package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegNo(t *testing.T) {
	cases := []struct {
		regNo string
		ok    bool
	}{
		{"12345678", true},
		{"00000001", true},
		{"1234567", false},
		{"123456789", false},
		{"1234abcd", false},
		{" 12345678", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidateRegNo(tc.regNo)
		if tc.ok {
			assert.NoError(t, err, tc.regNo)
		} else {
			assert.ErrorIs(t, err, ErrInvalidRegNo, tc.regNo)
		}
	}
}

func TestNormalizeRegNo(t *testing.T) {
	assert.Equal(t, "12345678", NormalizeRegNo("  12345678\n"))
}

func TestNewStudentDefaults(t *testing.T) {
	s := NewStudent("12345678", "Asha")
	assert.Equal(t, Monthly, s.Budget.Type)
	assert.Equal(t, float64(DefaultBudgetAmount), s.Budget.Amount)
	assert.Zero(t, s.Income)
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCategory("food")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-14"`), &d))
	assert.Equal(t, "2025-03-14", d.String())
	assert.Equal(t, "2025-03", d.YearMonth())

	require.NoError(t, json.Unmarshal([]byte(`"2025-03-14T18:30:00.000Z"`), &d))
	assert.Equal(t, "2025-03-14", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"14/03/2025"`), &d))

	out, err := json.Marshal(NewDate(2024, 12, 1))
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-01"`, string(out))
}

func TestDateOfTruncatesToUTCDay(t *testing.T) {
	ts := time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2025, 1, 31), DateOf(ts))
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Name: "Lunch", Amount: 120, Category: CategoryFood, RegNo: "12345678"}
	require.NoError(t, good.Validate())

	negative := good
	negative.Amount = -5
	assert.NoError(t, negative.Validate(), "amount sign is not validated")

	noName := good
	noName.Name = "  "
	assert.ErrorIs(t, noName.Validate(), ErrEmptyName)

	badCat := good
	badCat.Category = "Rent"
	assert.ErrorIs(t, badCat.Validate(), ErrInvalidCategory)

	noOwner := good
	noOwner.RegNo = ""
	assert.ErrorIs(t, noOwner.Validate(), ErrEmptyRegNo)
}

func TestExpensePatchApply(t *testing.T) {
	e := Expense{ID: "x", Name: "Bus", Amount: 20, Category: CategoryTransport, Date: NewDate(2025, 2, 1), RegNo: "12345678"}
	amount := 35.5
	cat := CategoryOthers

	got := ExpensePatch{Amount: &amount, Category: &cat}.Apply(e)

	assert.Equal(t, "Bus", got.Name)
	assert.Equal(t, 35.5, got.Amount)
	assert.Equal(t, CategoryOthers, got.Category)
	assert.Equal(t, e.Date, got.Date)
	assert.Equal(t, 20.0, e.Amount, "input is not mutated")
}

func TestSplitBillInvolves(t *testing.T) {
	s := SplitBill{CreatedBy: "11111111", Participants: []ParticipantSnapshot{{RegNo: "11111111"}, {RegNo: "22222222"}}}
	assert.True(t, s.Involves("11111111"))
	assert.True(t, s.Involves("22222222"))
	assert.False(t, s.Involves("33333333"))
}

func TestContactMessageValidate(t *testing.T) {
	assert.NoError(t, ContactMessage{Name: "A", Email: "a@b.c", Message: "hi"}.Validate())
	assert.ErrorIs(t, ContactMessage{Name: "A", Email: "a@b.c"}.Validate(), ErrEmptyContactBody)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "₹30.00", FormatAmount(30))
	assert.Equal(t, "₹33.33", FormatAmount(100.0/3))
	assert.Equal(t, "-₹12.50", FormatAmount(-12.5))
	assert.Equal(t, "42.5%", FormatPercent(42.5))
}
