// Package mongo stores students, expenses and split bills as documents in
// the students, expenses and splitbills collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"studentspend/internal/core"
	"studentspend/internal/storage"
)

const (
	StudentCollection = "students"
	ExpenseCollection = "expenses"
	SplitCollection   = "splitbills"

	DefaultDatabase = "student_expenses"
)

type Store struct {
	client   *mongo.Client
	students *mongo.Collection
	expenses *mongo.Collection
	splits   *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

type (
	budgetDoc struct {
		Type   string  `bson:"type"`
		Amount float64 `bson:"amount"`
	}

	studentDoc struct {
		RegNo   string    `bson:"regNo"`
		Name    string    `bson:"name"`
		Email   string    `bson:"email,omitempty"`
		Section string    `bson:"section,omitempty"`
		Budget  budgetDoc `bson:"budget"`
		Income  float64   `bson:"income"`
	}

	expenseDoc struct {
		ID       string    `bson:"_id"`
		Name     string    `bson:"name"`
		Amount   float64   `bson:"amount"`
		Category string    `bson:"category"`
		Date     time.Time `bson:"date"`
		RegNo    string    `bson:"regNo"`
	}

	participantDoc struct {
		RegNo  string  `bson:"regNo"`
		Name   string  `bson:"name"`
		Paid   bool    `bson:"paid"`
		Amount float64 `bson:"amount"`
	}

	splitDoc struct {
		ID              string           `bson:"_id"`
		Name            string           `bson:"name"`
		TotalAmount     float64          `bson:"totalAmount"`
		AmountPerPerson float64          `bson:"amountPerPerson"`
		CreatedBy       string           `bson:"createdBy"`
		Date            time.Time        `bson:"date"`
		Participants    []participantDoc `bson:"participants"`
	}
)

// Connect dials uri and ensures the indexes the store relies on.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}
	if database == "" {
		database = DefaultDatabase
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	s := newStore(client, client.Database(database))
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "database", database)
	return s, nil
}

func newStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:   client,
		students: db.Collection(StudentCollection),
		expenses: db.Collection(ExpenseCollection),
		splits:   db.Collection(SplitCollection),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.students.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "regNo", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create students index: %w", err)
	}
	if _, err := s.expenses.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "regNo", Value: 1}}}); err != nil {
		return fmt.Errorf("create expenses index: %w", err)
	}
	_, err = s.splits.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "participants.regNo", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create splitbills indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) FindStudent(ctx context.Context, regNo string) (core.Student, error) {
	var doc studentDoc
	err := s.students.FindOne(ctx, bson.M{"regNo": regNo}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Student{}, core.ErrStudentNotFound
	}
	if err != nil {
		return core.Student{}, fmt.Errorf("find student: %w", err)
	}
	return doc.toCore(), nil
}

func (s *Store) updateStudent(ctx context.Context, regNo string, set bson.M) (core.Student, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc studentDoc
	err := s.students.FindOneAndUpdate(ctx, bson.M{"regNo": regNo}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Student{}, core.ErrStudentNotFound
	}
	if err != nil {
		return core.Student{}, fmt.Errorf("update student: %w", err)
	}
	return doc.toCore(), nil
}

func (s *Store) UpdateBudget(ctx context.Context, regNo string, b core.Budget) (core.Student, error) {
	return s.updateStudent(ctx, regNo, bson.M{"budget": budgetDoc{Type: string(b.Type), Amount: b.Amount}})
}

func (s *Store) UpdateIncome(ctx context.Context, regNo string, income float64) (core.Student, error) {
	return s.updateStudent(ctx, regNo, bson.M{"income": income})
}

func (s *Store) SearchStudents(ctx context.Context, term, exclude string, limit int) ([]core.Student, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
	filter := bson.M{
		"$or": bson.A{
			bson.M{"regNo": pattern},
			bson.M{"name": pattern},
		},
		"regNo": bson.M{"$ne": exclude},
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.students.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	defer cursor.Close(ctx)

	out := []core.Student{}
	for cursor.Next(ctx) {
		var doc studentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode student: %w", err)
		}
		out = append(out, doc.toCore())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

func (s *Store) ReplaceStudents(ctx context.Context, students []core.Student) (int, error) {
	seen := make(map[string]struct{}, len(students))
	docs := make([]any, 0, len(students))
	for _, st := range students {
		if _, dup := seen[st.RegNo]; dup {
			return 0, fmt.Errorf("duplicate registration number %q", st.RegNo)
		}
		seen[st.RegNo] = struct{}{}
		docs = append(docs, studentFromCore(st))
	}

	if _, err := s.students.DeleteMany(ctx, bson.M{}); err != nil {
		return 0, fmt.Errorf("clear students: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	res, err := s.students.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert students: %w", err)
	}

	slog.InfoContext(ctx, "Student roster replaced", "count", len(res.InsertedIDs))
	return len(res.InsertedIDs), nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	if _, err := s.expenses.InsertOne(ctx, expenseFromCore(e)); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, regNo string) ([]core.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := s.expenses.Find(ctx, bson.M{"regNo": regNo}, opts)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	out := []core.Expense{}
	for cursor.Next(ctx) {
		var doc expenseDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode expense: %w", err)
		}
		out = append(out, doc.toCore())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var doc expenseDoc
	err := s.expenses.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return doc.toCore(), nil
}

func (s *Store) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Amount != nil {
		set["amount"] = *p.Amount
	}
	if p.Category != nil {
		set["category"] = string(*p.Category)
	}
	if p.Date != nil {
		set["date"] = p.Date.Time
	}
	if p.RegNo != nil {
		set["regNo"] = *p.RegNo
	}
	if len(set) == 0 {
		return s.GetExpense(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc expenseDoc
	err := s.expenses.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return doc.toCore(), nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.expenses.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (s *Store) CreateSplit(ctx context.Context, b core.SplitBill) (core.SplitBill, error) {
	if b.ID == "" {
		b.ID = storage.NewID()
	}
	if _, err := s.splits.InsertOne(ctx, splitFromCore(b)); err != nil {
		return core.SplitBill{}, fmt.Errorf("create split: %w", err)
	}
	return b, nil
}

// ListSplits uses a single $or query, so a bill matching both branches is
// still returned once.
func (s *Store) ListSplits(ctx context.Context, regNo string) ([]core.SplitBill, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"createdBy": regNo},
			bson.M{"participants.regNo": regNo},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := s.splits.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	defer cursor.Close(ctx)

	out := []core.SplitBill{}
	for cursor.Next(ctx) {
		var doc splitDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode split: %w", err)
		}
		out = append(out, doc.toCore())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

func (d studentDoc) toCore() core.Student {
	return core.Student{
		RegNo:   d.RegNo,
		Name:    d.Name,
		Email:   d.Email,
		Section: d.Section,
		Budget:  core.Budget{Type: core.BudgetPeriod(d.Budget.Type), Amount: d.Budget.Amount},
		Income:  d.Income,
	}
}

func studentFromCore(s core.Student) studentDoc {
	return studentDoc{
		RegNo:   s.RegNo,
		Name:    s.Name,
		Email:   s.Email,
		Section: s.Section,
		Budget:  budgetDoc{Type: string(s.Budget.Type), Amount: s.Budget.Amount},
		Income:  s.Income,
	}
}

func (d expenseDoc) toCore() core.Expense {
	return core.Expense{
		ID:       d.ID,
		Name:     d.Name,
		Amount:   d.Amount,
		Category: core.Category(d.Category),
		Date:     core.DateOf(d.Date),
		RegNo:    d.RegNo,
	}
}

func expenseFromCore(e core.Expense) expenseDoc {
	return expenseDoc{
		ID:       e.ID,
		Name:     e.Name,
		Amount:   e.Amount,
		Category: string(e.Category),
		Date:     e.Date.Time,
		RegNo:    e.RegNo,
	}
}

func (d splitDoc) toCore() core.SplitBill {
	parts := make([]core.ParticipantSnapshot, 0, len(d.Participants))
	for _, p := range d.Participants {
		parts = append(parts, core.ParticipantSnapshot{RegNo: p.RegNo, Name: p.Name, Paid: p.Paid, Amount: p.Amount})
	}
	return core.SplitBill{
		ID:              d.ID,
		Name:            d.Name,
		TotalAmount:     d.TotalAmount,
		AmountPerPerson: d.AmountPerPerson,
		CreatedBy:       d.CreatedBy,
		Date:            d.Date.UTC(),
		Participants:    parts,
	}
}

func splitFromCore(b core.SplitBill) splitDoc {
	parts := make([]participantDoc, 0, len(b.Participants))
	for _, p := range b.Participants {
		parts = append(parts, participantDoc{RegNo: p.RegNo, Name: p.Name, Paid: p.Paid, Amount: p.Amount})
	}
	return splitDoc{
		ID:              b.ID,
		Name:            b.Name,
		TotalAmount:     b.TotalAmount,
		AmountPerPerson: b.AmountPerPerson,
		CreatedBy:       b.CreatedBy,
		Date:            b.Date,
		Participants:    parts,
	}
}
