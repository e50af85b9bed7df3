package model

// Marketplace reference data. City and category names are stored in their
// Russian form; Uzbek input is normalized before hitting the database.

var CitiesRU = []string{"Ташкент", "Самарканд", "Бухара", "Андижан", "Наманган", "Фергана", "Хива", "Нукус"}
var CitiesUZ = []string{"Toshkent", "Samarqand", "Buxoro", "Andijon", "Namangan", "Farg'ona", "Xiva", "Nukus"}

var StoreCategoriesRU = []string{"Ресторан", "Кафе", "Пекарня", "Супермаркет", "Кондитерская", "Фастфуд"}
var StoreCategoriesUZ = []string{"Restoran", "Kafe", "Nonvoyxona", "Supermarket", "Qandolatxona", "Fastfud"}

var Units = []string{"шт", "кг", "г", "л", "мл", "упак", "м", "см"}

var cityUZToRU = map[string]string{
	"Toshkent":  "Ташкент",
	"Samarqand": "Самарканд",
	"Buxoro":    "Бухара",
	"Andijon":   "Андижан",
	"Namangan":  "Наманган",
	"Farg'ona":  "Фергана",
	"Xiva":      "Хива",
	"Nukus":     "Нукус",
}

var categoryUZToRU = map[string]string{
	"Restoran":     "Ресторан",
	"Kafe":         "Кафе",
	"Nonvoyxona":   "Пекарня",
	"Supermarket":  "Супермаркет",
	"Qandolatxona": "Кондитерская",
	"Fastfud":      "Фастфуд",
}

func Cities(lang string) []string {
	if lang == LangUZ {
		return CitiesUZ
	}
	return CitiesRU
}

func StoreCategories(lang string) []string {
	if lang == LangUZ {
		return StoreCategoriesUZ
	}
	return StoreCategoriesRU
}

// NormalizeCity converts a city name to its stored Russian form.
func NormalizeCity(city string) string {
	if ru, ok := cityUZToRU[city]; ok {
		return ru
	}
	return city
}

// NormalizeStoreCategory converts a category name to its stored Russian form.
func NormalizeStoreCategory(cat string) string {
	if ru, ok := categoryUZToRU[cat]; ok {
		return ru
	}
	return cat
}

func IsKnownCity(city string) bool {
	city = NormalizeCity(city)
	for _, c := range CitiesRU {
		if c == city {
			return true
		}
	}
	return false
}

func IsKnownStoreCategory(cat string) bool {
	cat = NormalizeStoreCategory(cat)
	for _, c := range StoreCategoriesRU {
		if c == cat {
			return true
		}
	}
	return false
}

func IsKnownUnit(unit string) bool {
	for _, u := range Units {
		if u == unit {
			return true
		}
	}
	return false
}
