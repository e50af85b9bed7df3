//go:build !integration

package application_test

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/usecase"
)

// In-memory stand-ins for the use cases, the session store and the bot.
// They emulate just enough of the real semantics, including the errors the
// orchestrator branches on.

type fakeUsers struct {
	byTg   map[int64]*model.User
	nextID int
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byTg: map[int64]*model.User{}} }

func (f *fakeUsers) put(u *model.User) { c := *u; f.byTg[u.TelegramID] = &c }

func (f *fakeUsers) RegisterOrFetch(_ context.Context, tgID int64, username, firstName string) (*model.User, error) {
	if u, ok := f.byTg[tgID]; ok {
		c := *u
		return &c, nil
	}
	f.nextID++
	u, err := model.NewUser("user-"+strconv.Itoa(f.nextID), tgID, username, firstName)
	if err != nil {
		return nil, err
	}
	f.byTg[tgID] = u
	c := *u
	return &c, nil
}

func (f *fakeUsers) CompleteRegistration(_ context.Context, tgID int64, phone, city string) (*model.User, error) {
	u, ok := f.byTg[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Phone, u.City = phone, city
	c := *u
	return &c, nil
}

func (f *fakeUsers) SetCity(_ context.Context, tgID int64, city string) error {
	u, ok := f.byTg[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.City = city
	return nil
}

func (f *fakeUsers) SetLanguage(_ context.Context, tgID int64, lang string) error {
	if lang != model.LangRU && lang != model.LangUZ {
		return domain.ErrInvalidArgument
	}
	u, ok := f.byTg[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Language = lang
	return nil
}

func (f *fakeUsers) ToggleNotifications(_ context.Context, tgID int64) (bool, error) {
	u, ok := f.byTg[tgID]
	if !ok {
		return false, domain.ErrNotFound
	}
	u.Notifications = !u.Notifications
	return u.Notifications, nil
}

func (f *fakeUsers) GetByTelegramID(_ context.Context, tgID int64) (*model.User, error) {
	u, ok := f.byTg[tgID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range f.byTg {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) List(_ context.Context, limit, _ int) ([]*model.User, error) {
	out := make([]*model.User, 0, len(f.byTg))
	for _, u := range f.byTg {
		c := *u
		out = append(out, &c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUsers) Count(context.Context) (int, error) { return len(f.byTg), nil }

func (f *fakeUsers) CountInactiveSince(context.Context, time.Time) (int, error) { return 0, nil }

type fakeStores struct {
	byID  map[string]*model.Store
	users *fakeUsers
}

func newFakeStores(users *fakeUsers) *fakeStores {
	return &fakeStores{byID: map[string]*model.Store{}, users: users}
}

func (f *fakeStores) put(s *model.Store) { c := *s; f.byID[s.ID] = &c }

func (f *fakeStores) Register(_ context.Context, ownerTgID int64, reg usecase.StoreRegistration) (*model.Store, error) {
	owner, ok := f.users.byTg[ownerTgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	store, err := model.NewStore(owner.ID, reg.Name, reg.City, reg.Address, reg.Description, reg.Category, reg.Phone)
	if err != nil {
		return nil, err
	}
	if owner.Role == model.RoleCustomer {
		owner.Role = model.RoleSeller
	}
	f.byID[store.ID] = store
	c := *store
	return &c, nil
}

func (f *fakeStores) Approve(_ context.Context, storeID string) (*model.Store, error) {
	s, ok := f.byID[storeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.Approve()
	c := *s
	return &c, nil
}

func (f *fakeStores) Reject(_ context.Context, storeID, reason string) (*model.Store, error) {
	s, ok := f.byID[storeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.Reject(reason)
	c := *s
	return &c, nil
}

func (f *fakeStores) Get(_ context.Context, storeID string) (*model.Store, error) {
	s, ok := f.byID[storeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeStores) ByOwner(_ context.Context, ownerID string) ([]*model.Store, error) {
	var out []*model.Store
	for _, s := range f.byID {
		if s.OwnerID == ownerID {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeStores) ApprovedByOwner(ctx context.Context, ownerID string) ([]*model.Store, error) {
	all, _ := f.ByOwner(ctx, ownerID)
	var out []*model.Store
	for _, s := range all {
		if s.IsApproved() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStores) ListPending(context.Context) ([]*model.Store, error) {
	var out []*model.Store
	for _, s := range f.byID {
		if s.Status == model.StorePending {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeStores) CountByStatus(context.Context) (map[model.StoreStatus]int, error) {
	counts := map[model.StoreStatus]int{}
	for _, s := range f.byID {
		counts[s.Status]++
	}
	return counts, nil
}

type fakeOffers struct {
	byID   map[string]*model.Offer
	stores *fakeStores
}

func newFakeOffers(stores *fakeStores) *fakeOffers {
	return &fakeOffers{byID: map[string]*model.Offer{}, stores: stores}
}

func (f *fakeOffers) put(o *model.Offer) { c := *o; f.byID[o.ID] = &c }

func (f *fakeOffers) Create(ctx context.Context, sellerID string, draft usecase.OfferDraft) (*model.Offer, error) {
	offers, err := f.CreateBatch(ctx, sellerID, []usecase.OfferDraft{draft})
	if err != nil {
		return nil, err
	}
	return offers[0], nil
}

func (f *fakeOffers) CreateBatch(_ context.Context, sellerID string, drafts []usecase.OfferDraft) ([]*model.Offer, error) {
	var out []*model.Offer
	for _, d := range drafts {
		store, ok := f.stores.byID[d.StoreID]
		if !ok || store.OwnerID != sellerID {
			return nil, domain.ErrNotFound
		}
		if !store.IsApproved() {
			return nil, domain.ErrStoreNotApproved
		}
		offer, err := model.NewOffer(d.StoreID, d.Title, d.OriginalPrice, d.DiscountPrice, d.Quantity, d.Unit, d.AvailableUntil)
		if err != nil {
			return nil, err
		}
		offer.PhotoID = d.PhotoID
		offer.Category = d.Category
		f.byID[offer.ID] = offer
		c := *offer
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeOffers) EditField(_ context.Context, sellerID, offerID, field, value string) (*model.Offer, error) {
	o, ok := f.byID[offerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	store := f.stores.byID[o.StoreID]
	if store == nil || store.OwnerID != sellerID {
		return nil, domain.ErrNotFound
	}
	switch field {
	case "title":
		o.Title = value
	case "price":
		p, _ := strconv.ParseInt(value, 10, 64)
		if p > o.OriginalPrice {
			return nil, domain.ErrInvalidArgument
		}
		o.DiscountPrice = p
	case "quantity":
		q, _ := strconv.Atoi(value)
		o.Quantity = q
	case "until":
		o.AvailableUntil = mustParseRFC3339(value)
	default:
		return nil, domain.ErrInvalidArgument
	}
	c := *o
	return &c, nil
}

func (f *fakeOffers) Deactivate(_ context.Context, sellerID, offerID string) error {
	o, ok := f.byID[offerID]
	if !ok {
		return domain.ErrNotFound
	}
	store := f.stores.byID[o.StoreID]
	if store == nil || store.OwnerID != sellerID {
		return domain.ErrNotFound
	}
	o.Status = model.OfferInactive
	return nil
}

func (f *fakeOffers) Get(_ context.Context, offerID string) (*model.Offer, error) {
	o, ok := f.byID[offerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (f *fakeOffers) ByStore(_ context.Context, storeID string) ([]*model.Offer, error) {
	var out []*model.Offer
	for _, o := range f.byID {
		if o.StoreID == storeID {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeOffers) ListActiveByCity(_ context.Context, city string, limit, _ int) ([]*model.Offer, error) {
	var out []*model.Offer
	for _, o := range f.byID {
		store := f.stores.byID[o.StoreID]
		if store == nil || store.City != city || !store.IsApproved() {
			continue
		}
		if !o.Bookable(time.Now()) {
			continue
		}
		c := *o
		out = append(out, &c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOffers) ExpireDue(_ context.Context, now time.Time) (int, error) {
	n := 0
	for _, o := range f.byID {
		if o.Status == model.OfferActive && o.IsExpired(now) {
			o.Status = model.OfferInactive
			n++
		}
	}
	return n, nil
}

func (f *fakeOffers) CountActive(context.Context) (int, error) {
	n := 0
	for _, o := range f.byID {
		if o.Status == model.OfferActive {
			n++
		}
	}
	return n, nil
}

type fakeBookings struct {
	byID   map[string]*model.Booking
	offers *fakeOffers
}

func newFakeBookings(offers *fakeOffers) *fakeBookings {
	return &fakeBookings{byID: map[string]*model.Booking{}, offers: offers}
}

func (f *fakeBookings) Book(_ context.Context, userID, offerID string, quantity int) (*model.Booking, error) {
	offer, ok := f.offers.byID[offerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !offer.Bookable(time.Now()) {
		return nil, domain.ErrOfferInactive
	}
	if quantity > offer.Quantity {
		return nil, domain.ErrNotEnoughQuantity
	}
	bk, err := model.NewBooking(offerID, userID, quantity)
	if err != nil {
		return nil, err
	}
	offer.Quantity -= quantity
	if offer.Quantity == 0 {
		offer.Status = model.OfferInactive
	}
	f.byID[bk.ID] = bk
	c := *bk
	return &c, nil
}

func (f *fakeBookings) ConfirmByCode(_ context.Context, sellerID, code string) (*model.Booking, error) {
	for _, bk := range f.byID {
		if bk.Code != code {
			continue
		}
		offer := f.offers.byID[bk.OfferID]
		if offer == nil {
			return nil, domain.ErrNotFound
		}
		store := f.offers.stores.byID[offer.StoreID]
		if store == nil || store.OwnerID != sellerID {
			return nil, domain.ErrNotFound
		}
		if bk.IsFinal() {
			return nil, domain.ErrBookingFinalized
		}
		bk.Status = model.BookingCompleted
		c := *bk
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBookings) Cancel(_ context.Context, userID, bookingID string) (*model.Booking, error) {
	bk, ok := f.byID[bookingID]
	if !ok || bk.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if bk.IsFinal() {
		return nil, domain.ErrBookingFinalized
	}
	bk.Status = model.BookingCancelled
	if offer := f.offers.byID[bk.OfferID]; offer != nil {
		offer.Quantity += bk.Quantity
		if offer.Status == model.OfferInactive && !offer.IsExpired(time.Now()) {
			offer.Status = model.OfferActive
		}
	}
	c := *bk
	return &c, nil
}

func (f *fakeBookings) ByUser(_ context.Context, userID string) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, bk := range f.byID {
		if bk.UserID == userID {
			c := *bk
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeBookings) CountByStatus(context.Context) (map[model.BookingStatus]int, error) {
	counts := map[model.BookingStatus]int{}
	for _, bk := range f.byID {
		counts[bk.Status]++
	}
	return counts, nil
}

type fakeStats struct{}

func (fakeStats) Totals(context.Context) (int, map[model.StoreStatus]int, int, error) {
	return 0, map[model.StoreStatus]int{}, 0, nil
}
func (fakeStats) Bookings(context.Context) (map[model.BookingStatus]int, error) {
	return map[model.BookingStatus]int{}, nil
}
func (fakeStats) InactiveUsers(context.Context, time.Time) (int, error) { return 0, nil }

type fakeBroadcast struct {
	cityNotices []string
}

func (f *fakeBroadcast) BroadcastMessage(_ context.Context, message string) (int, error) {
	return 0, nil
}

func (f *fakeBroadcast) NotifyCity(_ context.Context, city, message string, _ int64) (int, error) {
	f.cityNotices = append(f.cityNotices, city+": "+message)
	return 1, nil
}

// fakeSessions keeps sessions in memory and counts writes so tests can assert
// the read-once-write-once discipline.
type fakeSessions struct {
	byTg   map[int64]*repository.Session
	puts   int
	clears int
}

func newFakeSessions() *fakeSessions { return &fakeSessions{byTg: map[int64]*repository.Session{}} }

func (f *fakeSessions) Get(_ context.Context, tgID int64) (*repository.Session, error) {
	s, ok := f.byTg[tgID]
	if !ok {
		return nil, nil
	}
	c := *s
	c.Data = map[string]string{}
	for k, v := range s.Data {
		c.Data[k] = v
	}
	return &c, nil
}

func (f *fakeSessions) Put(_ context.Context, tgID int64, sess *repository.Session) error {
	f.puts++
	c := *sess
	f.byTg[tgID] = &c
	return nil
}

func (f *fakeSessions) Clear(_ context.Context, tgID int64) error {
	f.clears++
	delete(f.byTg, tgID)
	return nil
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.held[key] {
		return "", domain.ErrCollaborator
	}
	return "token", nil
}

func (f *fakeLocker) Unlock(context.Context, string, string) error { return nil }

type fakeLimiter struct {
	deny bool
}

func (f *fakeLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return !f.deny, nil
}

// sentMsg is one outbound bot call, flattened for assertions.
type sentMsg struct {
	kind string // message, buttons, keyboard, photo, callback
	tgID int64
	text string
	data []string // inline button payloads, in order
}

type fakeBot struct {
	sent []sentMsg
}

func (f *fakeBot) SendMessage(_ context.Context, tgID int64, text string) error {
	f.sent = append(f.sent, sentMsg{kind: "message", tgID: tgID, text: text})
	return nil
}

func (f *fakeBot) SendButtons(_ context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	m := sentMsg{kind: "buttons", tgID: tgID, text: text}
	for _, row := range rows {
		for _, b := range row {
			m.data = append(m.data, b.Data)
		}
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeBot) SendReplyKeyboard(_ context.Context, tgID int64, text string, rows [][]adapter.ReplyButton) error {
	m := sentMsg{kind: "keyboard", tgID: tgID, text: text}
	for _, row := range rows {
		for _, b := range row {
			m.data = append(m.data, b.Text)
		}
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeBot) SendPhoto(_ context.Context, tgID int64, fileID, caption string) error {
	f.sent = append(f.sent, sentMsg{kind: "photo", tgID: tgID, text: caption})
	return nil
}

func (f *fakeBot) AnswerCallback(_ context.Context, callbackID, text string) error {
	f.sent = append(f.sent, sentMsg{kind: "callback", text: text})
	return nil
}

// lastTo returns the most recent outbound call addressed to tgID, skipping
// callback answers.
func (f *fakeBot) lastTo(tgID int64) sentMsg {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].tgID == tgID && f.sent[i].kind != "callback" {
			return f.sent[i]
		}
	}
	return sentMsg{}
}

func (f *fakeBot) textsTo(tgID int64) []string {
	var out []string
	for _, m := range f.sent {
		if m.tgID == tgID {
			out = append(out, m.text)
		}
	}
	return out
}

func mustParseRFC3339(v string) time.Time {
	ts, _ := time.Parse(time.RFC3339, v)
	return ts
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
