package flow

import (
	"strconv"
	"strings"
	"time"

	"telegram-marketplace-bot/internal/domain/model"

	"github.com/go-playground/validator/v10"
)

var vd = validator.New()

const (
	maxTitleLen  = 100
	maxTextLen   = 500
	maxPrice     = 100_000_000 // sums, in so'm
	maxQuantity  = 1000
	maxBulkItems = 10
)

// phoneValidator accepts contact payloads and free-text numbers in E.164.
func phoneValidator(raw string, _ map[string]string) (string, error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", Invalid("invalid_phone")
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	if err := vd.Var(phone, "e164"); err != nil {
		return "", Invalid("invalid_phone")
	}
	return phone, nil
}

// cityValidator accepts a known city in either language, stored normalized.
func cityValidator(raw string, _ map[string]string) (string, error) {
	city := strings.TrimSpace(strings.TrimPrefix(raw, "📍"))
	city = strings.TrimSpace(city)
	if !model.IsKnownCity(city) {
		return "", Invalid("invalid_city")
	}
	return model.NormalizeCity(city), nil
}

func storeCategoryValidator(raw string, _ map[string]string) (string, error) {
	cat := strings.TrimSpace(strings.TrimPrefix(raw, "🏷"))
	cat = strings.TrimSpace(cat)
	if !model.IsKnownStoreCategory(cat) {
		return "", Invalid("invalid_category")
	}
	return model.NormalizeStoreCategory(cat), nil
}

func textValidator(field string, maxLen int) Validator {
	return func(raw string, _ map[string]string) (string, error) {
		text := strings.TrimSpace(raw)
		if text == "" || len([]rune(text)) > maxLen {
			return "", Invalid("invalid_" + field)
		}
		return text, nil
	}
}

func priceValidator(raw string, _ map[string]string) (string, error) {
	return parsePrice(raw)
}

// discountPriceValidator additionally requires the discount to undercut the
// original price collected one step earlier.
func discountPriceValidator(raw string, data map[string]string) (string, error) {
	v, err := parsePrice(raw)
	if err != nil {
		return "", err
	}
	discount, _ := strconv.ParseInt(v, 10, 64)
	original, _ := strconv.ParseInt(data["original_price"], 10, 64)
	if original > 0 && discount >= original {
		return "", Invalid("discount_not_lower")
	}
	return v, nil
}

func parsePrice(raw string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.ReplaceAll(s, ",", "")
	price, err := strconv.ParseInt(s, 10, 64)
	if err != nil || price <= 0 || price > maxPrice {
		return "", Invalid("invalid_price")
	}
	return strconv.FormatInt(price, 10), nil
}

func quantityValidator(raw string, _ map[string]string) (string, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || q < 1 || q > maxQuantity {
		return "", Invalid("invalid_quantity")
	}
	return strconv.Itoa(q), nil
}

// bookQuantityValidator caps the requested quantity by the offer's remaining
// stock seeded into the session when the flow started.
func bookQuantityValidator(raw string, data map[string]string) (string, error) {
	v, err := quantityValidator(raw, data)
	if err != nil {
		return "", err
	}
	q, _ := strconv.Atoi(v)
	if max, err := strconv.Atoi(data["max_quantity"]); err == nil && q > max {
		return "", Invalid("quantity_exceeds_available", max)
	}
	return v, nil
}

func unitValidator(raw string, _ map[string]string) (string, error) {
	unit := strings.TrimSpace(raw)
	if !model.IsKnownUnit(unit) {
		return "", Invalid("invalid_unit")
	}
	return unit, nil
}

// untilValidator parses "HH:MM" (today) or "02.01 15:04" into RFC3339,
// rejecting moments already in the past.
func untilValidator(raw string, _ map[string]string) (string, error) {
	return parseUntil(raw, time.Now())
}

func parseUntil(raw string, now time.Time) (string, error) {
	s := strings.TrimSpace(raw)
	var until time.Time
	if t, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		until = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		// a bare time earlier than now means tomorrow
		if until.Before(now) {
			until = until.Add(24 * time.Hour)
		}
	} else if t, err := time.ParseInLocation("02.01 15:04", s, now.Location()); err == nil {
		until = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	} else {
		return "", Invalid("invalid_datetime")
	}
	if until.Before(now) {
		return "", Invalid("datetime_in_past")
	}
	return until.Format(time.RFC3339), nil
}

// choiceValidator accepts only ids seeded into data[choicesField]
// (comma-joined) when the flow started. Keeps the check pure: ownership was
// established by the seeding handler.
func choiceValidator(choicesField, key string) Validator {
	return func(raw string, data map[string]string) (string, error) {
		id := strings.TrimSpace(raw)
		for _, allowed := range strings.Split(data[choicesField], ",") {
			if allowed != "" && allowed == id {
				return id, nil
			}
		}
		return "", Invalid(key)
	}
}

// photoValidator accepts a Telegram file id or the skip keyword.
func photoValidator(raw string, _ map[string]string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", Invalid("invalid_photo")
	}
	if strings.EqualFold(s, "skip") || s == "-" {
		return "", nil
	}
	return s, nil
}

func bulkCountValidator(raw string, _ map[string]string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 2 || n > maxBulkItems {
		return "", Invalid("invalid_bulk_count", maxBulkItems)
	}
	return strconv.Itoa(n), nil
}

// bulkLines wraps a per-item validator: input is one line per item and the
// line count must match the count collected earlier.
func bulkLines(item Validator) Validator {
	return func(raw string, data map[string]string) (string, error) {
		count, _ := strconv.Atoi(data["count"])
		lines := splitLines(raw)
		if len(lines) != count {
			return "", Invalid("bulk_line_mismatch", count, len(lines))
		}
		out := make([]string, 0, len(lines))
		for _, line := range lines {
			v, err := item(line, data)
			if err != nil {
				return "", err
			}
			out = append(out, v)
		}
		return strings.Join(out, "\n"), nil
	}
}

func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// editValueValidator dispatches on the field picked in the previous step.
func editValueValidator(raw string, data map[string]string) (string, error) {
	switch data["field"] {
	case "title":
		return textValidator("title", maxTitleLen)(raw, data)
	case "price":
		return parsePrice(raw)
	case "quantity":
		return quantityValidator(raw, data)
	case "until":
		return untilValidator(raw, data)
	default:
		return "", Invalid("invalid_edit_field")
	}
}

func editFieldValidator(raw string, _ map[string]string) (string, error) {
	switch raw {
	case "title", "price", "quantity", "until":
		return raw, nil
	}
	return "", Invalid("invalid_edit_field")
}

// bookingCodeValidator: ULID, 26 chars, Crockford base32.
func bookingCodeValidator(raw string, _ map[string]string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 26 {
		return "", Invalid("invalid_booking_code")
	}
	for _, r := range code {
		if !strings.ContainsRune("0123456789ABCDEFGHJKMNPQRSTVWXYZ", r) {
			return "", Invalid("invalid_booking_code")
		}
	}
	return code, nil
}
