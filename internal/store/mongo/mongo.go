package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

const (
	ownersCollection   = "owners"
	menusCollection    = "menus"
	billsCollection    = "bills"
	expensesCollection = "expenses"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, uri string, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique email index and the per-owner lookup
// indexes. Existing indexes with the same keys are left alone.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		ownersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		menusCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "category", Value: 1}, {Key: "name", Value: 1}}},
		},
		billsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		expensesCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "date", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}
	return nil
}

type ownerDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	CafeName       string             `bson:"cafeName"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"password"`
	Address        string             `bson:"address"`
	Phone          string             `bson:"phone"`
	TaxID          string             `bson:"taxId"`
	CurrencySymbol string             `bson:"currencySymbol"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d ownerDoc) toDomain() *domain.Owner {
	return &domain.Owner{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		CafeName:       d.CafeName,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Address:        d.Address,
		Phone:          d.Phone,
		TaxID:          d.TaxID,
		CurrencySymbol: d.CurrencySymbol,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type menuItemDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Owner     primitive.ObjectID   `bson:"owner"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Category  string               `bson:"category"`
	Stock     int                  `bson:"stock"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func (d menuItemDoc) toDomain() domain.MenuItem {
	return domain.MenuItem{
		ID:        d.ID.Hex(),
		Owner:     d.Owner.Hex(),
		Name:      d.Name,
		Price:     fromDecimal128(d.Price),
		Category:  d.Category,
		Stock:     d.Stock,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type billLineDoc struct {
	MenuItemID string               `bson:"menuItem,omitempty"`
	Name       string               `bson:"name"`
	Price      primitive.Decimal128 `bson:"price"`
	Quantity   int                  `bson:"quantity"`
}

type billDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Owner         primitive.ObjectID   `bson:"owner"`
	CustomerName  string               `bson:"customerName"`
	CustomerPhone string               `bson:"customerPhone"`
	Items         []billLineDoc        `bson:"items"`
	TotalAmount   primitive.Decimal128 `bson:"totalAmount"`
	PaymentMethod string               `bson:"paymentMethod"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

func (d billDoc) toDomain() domain.Bill {
	lines := make([]domain.BillLine, 0, len(d.Items))
	for _, line := range d.Items {
		lines = append(lines, domain.BillLine{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Price:      fromDecimal128(line.Price),
			Quantity:   line.Quantity,
		})
	}
	return domain.Bill{
		ID:            d.ID.Hex(),
		Owner:         d.Owner.Hex(),
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Items:         lines,
		TotalAmount:   fromDecimal128(d.TotalAmount),
		PaymentMethod: d.PaymentMethod,
		CreatedAt:     d.CreatedAt,
	}
}

type expenseDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Owner     primitive.ObjectID   `bson:"owner"`
	Title     string               `bson:"title"`
	Amount    primitive.Decimal128 `bson:"amount"`
	Category  string               `bson:"category"`
	Date      time.Time            `bson:"date"`
	CreatedAt time.Time            `bson:"createdAt"`
}

func (d expenseDoc) toDomain() domain.Expense {
	return domain.Expense{
		ID:        d.ID.Hex(),
		Owner:     d.Owner.Hex(),
		Title:     d.Title,
		Amount:    fromDecimal128(d.Amount),
		Category:  d.Category,
		Date:      d.Date,
		CreatedAt: d.CreatedAt,
	}
}

func (s *Store) CreateOwner(ctx context.Context, owner domain.Owner) (*domain.Owner, error) {
	email := strings.ToLower(strings.TrimSpace(owner.Email))
	if email == "" || owner.PasswordHash == "" {
		return nil, store.ErrInvalidInput
	}
	currency := owner.CurrencySymbol
	if currency == "" {
		currency = domain.DefaultCurrencySymbol
	}

	now := time.Now().UTC()
	doc := ownerDoc{
		ID:             primitive.NewObjectID(),
		Name:           owner.Name,
		CafeName:       owner.CafeName,
		Email:          email,
		PasswordHash:   owner.PasswordHash,
		Address:        owner.Address,
		Phone:          owner.Phone,
		TaxID:          owner.TaxID,
		CurrencySymbol: currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.db.Collection(ownersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) GetOwnerByID(ctx context.Context, id string) (*domain.Owner, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findOwner(ctx, bson.M{"_id": oid})
}

func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	return s.findOwner(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *Store) findOwner(ctx context.Context, filter bson.M) (*domain.Owner, error) {
	var doc ownerDoc
	if err := s.db.Collection(ownersCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (s *Store) UpdateOwner(ctx context.Context, owner domain.Owner) (*domain.Owner, error) {
	oid, err := primitive.ObjectIDFromHex(owner.ID)
	if err != nil {
		return nil, store.ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"name":           owner.Name,
		"cafeName":       owner.CafeName,
		"address":        owner.Address,
		"phone":          owner.Phone,
		"taxId":          owner.TaxID,
		"currencySymbol": owner.CurrencySymbol,
		"updatedAt":      time.Now().UTC(),
	}}
	var doc ownerDoc
	err = s.db.Collection(ownersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.toDomain(), nil
}

func (s *Store) ListMenuItems(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []domain.MenuItem{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := s.db.Collection(menusCollection).Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	var docs []menuItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomain())
	}
	return items, nil
}

func (s *Store) CreateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	owner, err := primitive.ObjectIDFromHex(item.Owner)
	if err != nil || item.Name == "" || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	price, err := toDecimal128(item.Price)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := menuItemDoc{
		ID:        primitive.NewObjectID(),
		Owner:     owner,
		Name:      item.Name,
		Price:     price,
		Category:  item.Category,
		Stock:     item.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.Collection(menusCollection).InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	created := doc.toDomain()
	return &created, nil
}

func (s *Store) GetMenuItem(ctx context.Context, ownerID string, id string) (*domain.MenuItem, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	var doc menuItemDoc
	if err := s.db.Collection(menusCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	item := doc.toDomain()
	return &item, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if item.Name == "" || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	filter, ok := ownedFilter(item.Owner, item.ID)
	if !ok {
		return nil, store.ErrNotFound
	}
	price, err := toDecimal128(item.Price)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"name":      item.Name,
		"price":     price,
		"category":  item.Category,
		"stock":     item.Stock,
		"updatedAt": time.Now().UTC(),
	}}
	var doc menuItemDoc
	err = s.db.Collection(menusCollection).
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	updated := doc.toDomain()
	return &updated, nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, ownerID string, id string) error {
	return s.deleteOwned(ctx, menusCollection, ownerID, id)
}

// DecrementStock runs as one findAndModify so concurrent sales of the same
// item never overwrite each other. The clamped variant uses an update
// pipeline to keep the floor inside the same atomic write.
func (s *Store) DecrementStock(ctx context.Context, ownerID string, id string, qty int, floorAtZero bool) (int, error) {
	if qty < 1 {
		return 0, store.ErrInvalidInput
	}
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return 0, store.ErrNotFound
	}

	now := time.Now().UTC()
	var update any = bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": now},
	}
	if floorAtZero {
		update = mongo.Pipeline{
			{{Key: "$set", Value: bson.D{
				{Key: "stock", Value: bson.D{{Key: "$max", Value: bson.A{
					0,
					bson.D{{Key: "$subtract", Value: bson.A{"$stock", qty}}},
				}}}},
				{Key: "updatedAt", Value: now},
			}}},
		}
	}

	var doc menuItemDoc
	err := s.db.Collection(menusCollection).
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&doc)
	if err != nil {
		return 0, notFound(err)
	}
	return doc.Stock, nil
}

func (s *Store) CreateBill(ctx context.Context, bill domain.Bill) (*domain.Bill, error) {
	owner, err := primitive.ObjectIDFromHex(bill.Owner)
	if err != nil || len(bill.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	total, err := toDecimal128(bill.TotalAmount)
	if err != nil {
		return nil, err
	}

	lines := make([]billLineDoc, 0, len(bill.Items))
	for _, line := range bill.Items {
		price, err := toDecimal128(line.Price)
		if err != nil {
			return nil, err
		}
		lines = append(lines, billLineDoc{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Price:      price,
			Quantity:   line.Quantity,
		})
	}

	createdAt := bill.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	doc := billDoc{
		ID:            primitive.NewObjectID(),
		Owner:         owner,
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.CustomerPhone,
		Items:         lines,
		TotalAmount:   total,
		PaymentMethod: bill.PaymentMethod,
		CreatedAt:     createdAt,
	}
	if _, err := s.db.Collection(billsCollection).InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	created := doc.toDomain()
	return &created, nil
}

func (s *Store) GetBill(ctx context.Context, ownerID string, id string) (*domain.Bill, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return nil, store.ErrNotFound
	}
	var doc billDoc
	if err := s.db.Collection(billsCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	bill := doc.toDomain()
	return &bill, nil
}

func (s *Store) ListBills(ctx context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Bill, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []domain.Bill{}, nil
	}

	filter := bson.M{"owner": owner}
	if window := timeWindow(from, to); window != nil {
		filter["createdAt"] = window
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.db.Collection(billsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []billDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	bills := make([]domain.Bill, 0, len(docs))
	for _, doc := range docs {
		bills = append(bills, doc.toDomain())
	}
	return bills, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	owner, err := primitive.ObjectIDFromHex(expense.Owner)
	if err != nil || expense.Title == "" || expense.Amount.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	amount, err := toDecimal128(expense.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := expense.Date
	if date.IsZero() {
		date = now
	}
	doc := expenseDoc{
		ID:        primitive.NewObjectID(),
		Owner:     owner,
		Title:     expense.Title,
		Amount:    amount,
		Category:  expense.Category,
		Date:      date,
		CreatedAt: now,
	}
	if _, err := s.db.Collection(expensesCollection).InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	created := doc.toDomain()
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Expense, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []domain.Expense{}, nil
	}

	filter := bson.M{"owner": owner}
	if window := timeWindow(from, to); window != nil {
		filter["date"] = window
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := s.db.Collection(expensesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []expenseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	expenses := make([]domain.Expense, 0, len(docs))
	for _, doc := range docs {
		expenses = append(expenses, doc.toDomain())
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, ownerID string, id string) error {
	return s.deleteOwned(ctx, expensesCollection, ownerID, id)
}

func (s *Store) deleteOwned(ctx context.Context, collection string, ownerID string, id string) error {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return store.ErrNotFound
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ownedFilter matches a document by id and owner. Ids that are not valid
// ObjectIDs cannot exist, so callers report them as not found.
func ownedFilter(ownerID string, id string) (bson.M, bool) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "owner": owner}, true
}

func timeWindow(from time.Time, to time.Time) bson.M {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from
	}
	if !to.IsZero() {
		window["$lte"] = to
	}
	return window
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
