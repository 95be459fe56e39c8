package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyValue(t *testing.T) {
	t.Run("rupee range", func(t *testing.T) {
		res := MoneyValue("₹50,000 - ₹1,00,000", Context{})
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, &Money{Min: 50000, Max: 100000, Currency: "INR"}, res.Value.Money)
		assert.Equal(t, "INR 50,000 - INR 1,00,000", res.Value.Display())
	})

	t.Run("under sets zero minimum", func(t *testing.T) {
		res := MoneyValue("under $5k", Context{})
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, 0.0, res.Value.Money.Min)
		assert.Equal(t, 5000.0, res.Value.Money.Max)
		assert.Equal(t, "Up to USD 5,000", res.Value.Display())
	})

	t.Run("period", func(t *testing.T) {
		res := MoneyValue("around 50k per month", Context{})
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, "month", res.Value.Money.Period)
		assert.Equal(t, "INR 50,000 per month", res.Value.Display())
	})

	t.Run("currency word after number", func(t *testing.T) {
		res := MoneyValue("3000 dollars", Context{})
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, "USD", res.Value.Money.Currency)
	})

	t.Run("default currency from context", func(t *testing.T) {
		res := MoneyValue("60000", Context{DefaultCurrency: "EUR"})
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, "EUR", res.Value.Money.Currency)
		assert.Less(t, res.Confidence, 0.9)
	})

	t.Run("flexible", func(t *testing.T) {
		res := MoneyValue("not sure yet", Context{})
		require.Equal(t, StatusOK, res.Status)
		assert.True(t, res.Value.Money.Flexible)
		assert.Equal(t, "Flexible", res.Value.Display())
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Equal(t, ErrMoneyFormat, MoneyValue("a lot", Context{}).Error)
		assert.Equal(t, ErrEmpty, MoneyValue("  ", Context{}).Error)
	})
}

func TestDurationValue(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		res := DurationValue("2 weeks", Context{})
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, &Duration{Value: 2, Unit: "week"}, res.Value.Duration)
		assert.Equal(t, "2 weeks", res.Value.Display())
	})

	t.Run("range", func(t *testing.T) {
		res := DurationValue("2-3 months", Context{})
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, "2-3 months", res.Value.Display())
		w, known := res.Value.Duration.Weeks()
		assert.True(t, known)
		assert.Equal(t, 12.0, w)
	})

	t.Run("bare number is ambiguous", func(t *testing.T) {
		res := DurationValue("3", Context{})
		assert.Equal(t, StatusAmbiguous, res.Status)
		assert.Equal(t, []string{"3 weeks", "3 months"}, res.Options)
		assert.Nil(t, res.Value)
	})

	t.Run("singular unit for one", func(t *testing.T) {
		res := DurationValue("1", Context{AllowedUnits: []string{"days", "weeks"}})
		assert.Equal(t, []string{"1 day", "1 week"}, res.Options)
	})

	t.Run("labels", func(t *testing.T) {
		assert.Equal(t, "ASAP", DurationValue("asap please", Context{}).Value.Display())
		assert.Equal(t, "Ongoing", DurationValue("it's ongoing", Context{}).Value.Display())
		assert.Equal(t, "Flexible", DurationValue("flexible", Context{}).Value.Display())
		date := DurationValue("by March 2025", Context{})
		assert.Equal(t, KindDate, date.Value.Duration.Kind)
		assert.Equal(t, "by March 2025", date.Value.Display())
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Equal(t, ErrDurationFormat, DurationValue("soonish maybe", Context{}).Error)
	})
}

func TestEnumAndList(t *testing.T) {
	stack := Context{Suggestions: []string{"WordPress", "React.js", "Next.js", "Other"}}

	res := Enum("React.js or Next.js", stack)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"React.js"}, res.Value.Choices)

	res = List("React.js or Next.js", stack)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"React.js", "Next.js"}, res.Value.Choices)

	res = List("React.js or Next.js", Context{Suggestions: stack.Suggestions, MaxSelect: 1})
	assert.Equal(t, []string{"React.js"}, res.Value.Choices)

	res = Enum("Svelte", stack)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"Svelte"}, res.Value.Choices)
	assert.Equal(t, 0.5, res.Confidence)

	res = Enum("Svelte", Context{Suggestions: []string{"WordPress", "Shopify"}})
	assert.Equal(t, StatusInvalid, res.Status)
	assert.Equal(t, ErrEnumMismatch, res.Error)
}

func TestText(t *testing.T) {
	assert.Equal(t, ErrGreetingOnly, Text("hello!", Context{}).Error)
	res := Text("**An online bakery** for custom cakes", Context{})
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "An online bakery for custom cakes", res.Value.Text)
}

func TestRange(t *testing.T) {
	res := Range("about 5 to 10 pages", Context{})
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, &NumberRange{Min: 5, Max: 10}, res.Value.Range)
	assert.Equal(t, "5-10", res.Value.Display())

	res = Range("three", Context{})
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "3", res.Value.Display())

	assert.Equal(t, ErrNumberFormat, Range("a few dozen", Context{}).Error)
}

func TestNormalizeDispatch(t *testing.T) {
	assert.Equal(t, StatusAmbiguous, Normalize(TypeDuration, "3", Context{}).Status)
	assert.Equal(t, StatusOK, Normalize("unknown", "anything at all", Context{}).Status)

	typ, err := ParseExpectedType("Money")
	require.NoError(t, err)
	assert.Equal(t, TypeMoney, typ)
	_, err = ParseExpectedType("colour")
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "INR 1,00,00,000", FormatAmount(1e7, "INR"))
	assert.Equal(t, "USD 1,234,567", FormatAmount(1234567, "USD"))
	assert.Equal(t, "EUR 999.50", FormatAmount(999.5, "EUR"))
}
