//go:build !integration

package flow

import (
	"errors"
	"testing"
	"time"

	"telegram-marketplace-bot/internal/domain"
)

func TestProductionRegistryValidates(t *testing.T) {
	if _, err := NewRegistry(Definitions()...); err != nil {
		t.Fatalf("production flow definitions must validate: %v", err)
	}
}

func TestRegistryRejectsBrokenDefinitions(t *testing.T) {
	cases := []struct {
		name string
		def  *Definition
	}{
		{
			name: "no steps",
			def:  &Definition{Name: "broken"},
		},
		{
			name: "goto unknown step",
			def: &Definition{Name: "broken", Steps: []Step{
				{Name: "a", Next: Goto("nowhere")},
				{Name: "b", Next: Terminal()},
			}},
		},
		{
			name: "no terminal",
			def: &Definition{Name: "broken", Steps: []Step{
				{Name: "a", Next: Goto("a")},
			}},
		},
		{
			name: "falls off the end",
			def: &Definition{Name: "broken", Steps: []Step{
				{Name: "a", Next: Next()},
			}},
		},
		{
			name: "duplicate step",
			def: &Definition{Name: "broken", Steps: []Step{
				{Name: "a", Next: Next()},
				{Name: "a", Next: Terminal()},
			}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.def)
			if !errors.Is(err, domain.ErrFlowConfig) {
				t.Errorf("expected ErrFlowConfig, got %v", err)
			}
		})
	}
}

func TestResolveTransitions(t *testing.T) {
	def := &Definition{Name: "test", Steps: []Step{
		{Name: "a", Next: Next()},
		{Name: "b", Next: Goto("d")},
		{Name: "c", Next: Terminal()},
		{Name: "d", Next: Terminal()},
	}}
	if _, err := NewRegistry(def); err != nil {
		t.Fatalf("registry: %v", err)
	}

	next, done := def.Resolve(0, nil)
	if done || next != 1 {
		t.Errorf("a -> next: expected step 1, got %d done=%v", next, done)
	}
	next, done = def.Resolve(1, nil)
	if done || next != 3 {
		t.Errorf("b -> goto d: expected step 3, got %d done=%v", next, done)
	}
	if _, done = def.Resolve(3, nil); !done {
		t.Error("d is terminal, expected done")
	}
}

func TestResolveSkipsSteps(t *testing.T) {
	def := &Definition{Name: "test", Steps: []Step{
		{Name: "a", Next: Next()},
		{Name: "b", Next: Next(), SkipIf: fieldSet("b_known")},
		{Name: "c", Next: Terminal()},
	}}

	next, done := def.Resolve(0, map[string]string{"b_known": "yes"})
	if done || next != 2 {
		t.Errorf("expected skip to step 2, got %d done=%v", next, done)
	}

	next, done = def.Resolve(0, map[string]string{})
	if done || next != 1 {
		t.Errorf("expected step 1 without skip, got %d done=%v", next, done)
	}
}

func TestResolveSkipIntoTerminal(t *testing.T) {
	def := &Definition{Name: "test", Steps: []Step{
		{Name: "a", Next: Next()},
		{Name: "b", Next: Terminal(), SkipIf: fieldSet("b_known")},
	}}
	if _, done := def.Resolve(0, map[string]string{"b_known": "yes"}); !done {
		t.Error("skipping the terminal step must terminate the flow")
	}
}

func TestRegistrationEntrySkipsKnownPhone(t *testing.T) {
	reg := MustRegistry()
	def, ok := reg.Get(Registration)
	if !ok {
		t.Fatal("registration flow missing")
	}

	idx, ok := def.EntryStep(map[string]string{"phone": "+998901234567"})
	if !ok || def.Steps[idx].Name != "city" {
		t.Errorf("expected entry at city when phone is known, got %v ok=%v", idx, ok)
	}

	idx, ok = def.EntryStep(map[string]string{})
	if !ok || def.Steps[idx].Name != "phone" {
		t.Errorf("expected entry at phone, got %v ok=%v", idx, ok)
	}
}

func TestCreateOfferCategoryOnlyForSupermarkets(t *testing.T) {
	reg := MustRegistry()
	def, _ := reg.Get(CreateOffer)
	unitIdx := def.indexOf("unit")

	next, done := def.Resolve(unitIdx, map[string]string{"store_category": "Пекарня"})
	if done || def.Steps[next].Name != "available_until" {
		t.Errorf("bakery must skip product category, got step %q", def.Steps[next].Name)
	}

	next, done = def.Resolve(unitIdx, map[string]string{"store_category": "Супермаркет"})
	if done || def.Steps[next].Name != "category" {
		t.Errorf("supermarket must hit product category, got step %q", def.Steps[next].Name)
	}
}

func TestPhoneValidator(t *testing.T) {
	cases := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"+998901234567", "+998901234567", true},
		{"998901234567", "+998901234567", true},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := phoneValidator(tc.raw, nil)
		if tc.valid && (err != nil || got != tc.want) {
			t.Errorf("phone %q: expected %q, got %q err=%v", tc.raw, tc.want, got, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("phone %q: expected rejection", tc.raw)
		}
	}
}

func TestCityValidatorNormalizes(t *testing.T) {
	got, err := cityValidator("📍 Toshkent", nil)
	if err != nil || got != "Ташкент" {
		t.Errorf("expected normalized Ташкент, got %q err=%v", got, err)
	}
	if _, err := cityValidator("Atlantis", nil); err == nil {
		t.Error("unknown city must be rejected")
	}
	var verr *ValidationError
	if _, err := cityValidator("Atlantis", nil); !errors.As(err, &verr) || verr.Key != "invalid_city" {
		t.Errorf("expected ValidationError invalid_city, got %v", err)
	}
}

func TestDiscountPriceValidator(t *testing.T) {
	data := map[string]string{"original_price": "20000"}
	if _, err := discountPriceValidator("25000", data); err == nil {
		t.Error("discount above original must be rejected")
	}
	got, err := discountPriceValidator("8 000", data)
	if err != nil || got != "8000" {
		t.Errorf("expected 8000, got %q err=%v", got, err)
	}
}

func TestBookQuantityValidator(t *testing.T) {
	data := map[string]string{"max_quantity": "3"}
	if _, err := bookQuantityValidator("5", data); err == nil {
		t.Error("quantity above remaining stock must be rejected")
	}
	if got, err := bookQuantityValidator("2", data); err != nil || got != "2" {
		t.Errorf("expected 2, got %q err=%v", got, err)
	}
}

func TestParseUntil(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

	t.Run("time today", func(t *testing.T) {
		got, err := parseUntil("18:30", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		parsed, _ := time.Parse(time.RFC3339, got)
		if parsed.Day() != 1 || parsed.Hour() != 18 {
			t.Errorf("expected today 18:30, got %s", got)
		}
	})

	t.Run("earlier time rolls to tomorrow", func(t *testing.T) {
		got, err := parseUntil("09:00", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		parsed, _ := time.Parse(time.RFC3339, got)
		if parsed.Day() != 2 {
			t.Errorf("expected tomorrow, got %s", got)
		}
	})

	t.Run("explicit past date rejected", func(t *testing.T) {
		if _, err := parseUntil("01.01 10:00", now); err == nil {
			t.Error("past datetime must be rejected")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := parseUntil("soon", now); err == nil {
			t.Error("unparseable input must be rejected")
		}
	})
}

func TestBulkLines(t *testing.T) {
	data := map[string]string{"count": "3"}
	v := bulkLines(priceValidator)

	if _, err := v("1000\n2000", data); err == nil {
		t.Error("line count mismatch must be rejected")
	}
	got, err := v("1000\n2000\n3000\n", data)
	if err != nil || got != "1000\n2000\n3000" {
		t.Errorf("expected joined prices, got %q err=%v", got, err)
	}
	if _, err := v("1000\nfree\n3000", data); err == nil {
		t.Error("invalid line must reject the whole batch")
	}
}

func TestBookingCodeValidator(t *testing.T) {
	if _, err := bookingCodeValidator("01hz\tnope", nil); err == nil {
		t.Error("malformed code must be rejected")
	}
	code := "01HZXW8Q2M3N4P5R6S7T8V9WXA"
	got, err := bookingCodeValidator(" "+code+" ", nil)
	if err != nil || got != code {
		t.Errorf("expected %q, got %q err=%v", code, got, err)
	}
}

func TestEditValueValidatorDispatch(t *testing.T) {
	if got, err := editValueValidator("42", map[string]string{"field": "quantity"}); err != nil || got != "42" {
		t.Errorf("quantity edit: got %q err=%v", got, err)
	}
	if _, err := editValueValidator("42", map[string]string{"field": "color"}); err == nil {
		t.Error("unknown edit field must be rejected")
	}
}
