package flow

// Definitions returns every production flow. The set mirrors what the bot
// offers: onboarding, store registration, offer management, and booking.
func Definitions() []*Definition {
	return []*Definition{
		registration(),
		registerStore(),
		createOffer(),
		bulkCreate(),
		changeCity(),
		editOffer(),
		confirmOrder(),
		bookOffer(),
	}
}

// MustRegistry builds the production registry or panics at startup. A panic
// here means a definition references an unknown step; there is no point in
// accepting traffic.
func MustRegistry() *Registry {
	r, err := NewRegistry(Definitions()...)
	if err != nil {
		panic(err)
	}
	return r
}

func registration() *Definition {
	return &Definition{
		Name: Registration,
		Steps: []Step{
			{
				Name:     "phone",
				Field:    "phone",
				Input:    InputContact,
				Prompt:   "send_phone",
				Validate: phoneValidator,
				Next:     Next(),
				SkipIf:   fieldSet("phone"),
			},
			{
				Name:     "city",
				Field:    "city",
				Input:    InputText,
				Prompt:   "choose_city",
				Validate: cityValidator,
				Next:     Terminal(),
			},
		},
	}
}

func registerStore() *Definition {
	return &Definition{
		Name: RegisterStore,
		Steps: []Step{
			{
				Name:     "city",
				Field:    "city",
				Input:    InputText,
				Prompt:   "store_choose_city",
				Validate: cityValidator,
				Next:     Next(),
				SkipIf:   fieldSet("city"),
			},
			{
				Name:     "category",
				Field:    "category",
				Input:    InputText,
				Prompt:   "store_choose_category",
				Validate: storeCategoryValidator,
				Next:     Next(),
			},
			{
				Name:     "name",
				Field:    "name",
				Input:    InputText,
				Prompt:   "store_enter_name",
				Validate: textValidator("name", maxTitleLen),
				Next:     Next(),
			},
			{
				Name:     "address",
				Field:    "address",
				Input:    InputText,
				Prompt:   "store_enter_address",
				Validate: textValidator("address", maxTextLen),
				Next:     Next(),
			},
			{
				Name:     "description",
				Field:    "description",
				Input:    InputText,
				Prompt:   "store_enter_description",
				Validate: textValidator("description", maxTextLen),
				Next:     Next(),
			},
			{
				Name:     "phone",
				Field:    "phone",
				Input:    InputAny,
				Prompt:   "store_enter_phone",
				Validate: phoneValidator,
				Next:     Terminal(),
			},
		},
	}
}

func createOffer() *Definition {
	return &Definition{
		Name: CreateOffer,
		Steps: []Step{
			{
				Name:     "store",
				Field:    "store_id",
				Input:    InputCallback,
				Prompt:   "offer_choose_store",
				Validate: choiceValidator("store_choices", "invalid_store_choice"),
				Next:     Next(),
				SkipIf:   fieldSet("store_id"),
			},
			{
				Name:     "title",
				Field:    "title",
				Input:    InputText,
				Prompt:   "offer_enter_title",
				Validate: textValidator("title", maxTitleLen),
				Next:     Next(),
			},
			{
				Name:     "photo",
				Field:    "photo",
				Input:    InputAny,
				Prompt:   "offer_send_photo",
				Validate: photoValidator,
				Next:     Next(),
			},
			{
				Name:     "original_price",
				Field:    "original_price",
				Input:    InputText,
				Prompt:   "offer_enter_original_price",
				Validate: priceValidator,
				Next:     Next(),
			},
			{
				Name:     "discount_price",
				Field:    "discount_price",
				Input:    InputText,
				Prompt:   "offer_enter_discount_price",
				Validate: discountPriceValidator,
				Next:     Next(),
			},
			{
				Name:     "quantity",
				Field:    "quantity",
				Input:    InputText,
				Prompt:   "offer_enter_quantity",
				Validate: quantityValidator,
				Next:     Next(),
			},
			{
				Name:     "unit",
				Field:    "unit",
				Input:    InputText,
				Prompt:   "offer_choose_unit",
				Validate: unitValidator,
				Next:     Next(),
			},
			{
				// Product categories only make sense for supermarkets; other
				// venues jump straight to the availability window.
				Name:     "category",
				Field:    "category",
				Input:    InputText,
				Prompt:   "offer_choose_product_category",
				Validate: textValidator("category", maxTitleLen),
				Next:     Next(),
				SkipIf: func(data map[string]string) bool {
					return data["store_category"] != "Супермаркет"
				},
			},
			{
				Name:     "available_until",
				Field:    "available_until",
				Input:    InputText,
				Prompt:   "offer_enter_until",
				Validate: untilValidator,
				Next:     Terminal(),
			},
		},
	}
}

func bulkCreate() *Definition {
	return &Definition{
		Name: BulkCreate,
		Steps: []Step{
			{
				Name:     "store",
				Field:    "store_id",
				Input:    InputCallback,
				Prompt:   "offer_choose_store",
				Validate: choiceValidator("store_choices", "invalid_store_choice"),
				Next:     Next(),
				SkipIf:   fieldSet("store_id"),
			},
			{
				Name:     "count",
				Field:    "count",
				Input:    InputText,
				Prompt:   "bulk_enter_count",
				Validate: bulkCountValidator,
				Next:     Next(),
			},
			{
				Name:     "titles",
				Field:    "titles",
				Input:    InputText,
				Prompt:   "bulk_enter_titles",
				Validate: bulkLines(textValidator("title", maxTitleLen)),
				Next:     Next(),
			},
			{
				Name:     "original_prices",
				Field:    "original_prices",
				Input:    InputText,
				Prompt:   "bulk_enter_original_prices",
				Validate: bulkLines(priceValidator),
				Next:     Next(),
			},
			{
				Name:     "discount_prices",
				Field:    "discount_prices",
				Input:    InputText,
				Prompt:   "bulk_enter_discount_prices",
				Validate: bulkLines(parseBulkDiscount),
				Next:     Next(),
			},
			{
				Name:     "quantities",
				Field:    "quantities",
				Input:    InputText,
				Prompt:   "bulk_enter_quantities",
				Validate: bulkLines(quantityValidator),
				Next:     Next(),
			},
			{
				Name:     "available_untils",
				Field:    "available_untils",
				Input:    InputText,
				Prompt:   "bulk_enter_untils",
				Validate: bulkLines(untilValidator),
				Next:     Terminal(),
			},
		},
	}
}

// parseBulkDiscount cannot compare against a single original price, the
// cross-line check happens at commit time.
func parseBulkDiscount(raw string, _ map[string]string) (string, error) {
	return parsePrice(raw)
}

func changeCity() *Definition {
	return &Definition{
		Name: ChangeCity,
		// Free text that is not a known city falls back to menu matching, so
		// a stray tap on a menu button does not get stuck re-prompting.
		MenuFallback: true,
		Steps: []Step{
			{
				Name:     "new_city",
				Field:    "city",
				Input:    InputText,
				Prompt:   "choose_city",
				Validate: cityValidator,
				Next:     Terminal(),
			},
		},
	}
}

func editOffer() *Definition {
	return &Definition{
		Name: EditOffer,
		Steps: []Step{
			{
				Name:     "field",
				Field:    "field",
				Input:    InputCallback,
				Prompt:   "edit_choose_field",
				Validate: editFieldValidator,
				Next:     Next(),
			},
			{
				Name:     "value",
				Field:    "value",
				Input:    InputText,
				Prompt:   "edit_enter_value",
				Validate: editValueValidator,
				Next:     Terminal(),
			},
		},
	}
}

func confirmOrder() *Definition {
	return &Definition{
		Name: ConfirmOrder,
		Steps: []Step{
			{
				Name:     "booking_code",
				Field:    "code",
				Input:    InputText,
				Prompt:   "confirm_enter_code",
				Validate: bookingCodeValidator,
				Next:     Terminal(),
			},
		},
	}
}

func bookOffer() *Definition {
	return &Definition{
		Name: BookOffer,
		Steps: []Step{
			{
				Name:     "quantity",
				Field:    "quantity",
				Input:    InputText,
				Prompt:   "book_enter_quantity",
				Validate: bookQuantityValidator,
				Next:     Terminal(),
			},
		},
	}
}

func fieldSet(field string) func(map[string]string) bool {
	return func(data map[string]string) bool { return data[field] != "" }
}
