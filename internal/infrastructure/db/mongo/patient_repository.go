package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// PatientRepository implements ports.PatientRepository using MongoDB.
// Numeric ids come from a sequence document in the counters collection.
type PatientRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewPatientRepository(db *mongo.Database) *PatientRepository {
	return &PatientRepository{
		col:      db.Collection(patientsCollection),
		counters: db.Collection(countersCollection),
	}
}

type patientDoc struct {
	ID        int64      `bson:"_id"`
	Name      string     `bson:"name"`
	BirthDate *time.Time `bson:"birth_date,omitempty"`
	VisitAt   time.Time  `bson:"visit_at"`
	Diagnosis string     `bson:"diagnosis"`
	Treatment string     `bson:"treatment"`
	Doctor    string     `bson:"doctor"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty"`
}

func toDoc(p *domain.Patient) patientDoc {
	doc := patientDoc{
		ID:        p.ID,
		Name:      p.Name,
		VisitAt:   p.VisitAt.UTC(),
		Diagnosis: p.Diagnosis,
		Treatment: p.Treatment,
		Doctor:    p.Doctor,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt,
	}
	if !p.BirthDate.IsZero() {
		b := p.BirthDate.UTC()
		doc.BirthDate = &b
	}
	return doc
}

func (d patientDoc) toDomain() *domain.Patient {
	p := &domain.Patient{
		ID:        d.ID,
		Name:      d.Name,
		VisitAt:   d.VisitAt.UTC(),
		Diagnosis: d.Diagnosis,
		Treatment: d.Treatment,
		Doctor:    d.Doctor,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt,
	}
	if d.BirthDate != nil {
		p.BirthDate = d.BirthDate.UTC()
	}
	return p
}

// reserveIDs advances the patient sequence by n and returns the first id of the block.
func (r *PatientRepository) reserveIDs(ctx context.Context, n int) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": patientsCollection},
		bson.M{"$inc": bson.M{"seq": int64(n)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("reserve patient id: %w", err)
	}
	return counter.Seq - int64(n) + 1, nil
}

func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	id, err := r.reserveIDs(ctx, 1)
	if err != nil {
		return err
	}
	p.ID = id

	if _, err := r.col.InsertOne(ctx, toDoc(p)); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

// CreateMany reserves one id block and inserts the batch with a single ordered InsertMany.
func (r *PatientRepository) CreateMany(ctx context.Context, ps []*domain.Patient) error {
	if len(ps) == 0 {
		return nil
	}
	first, err := r.reserveIDs(ctx, len(ps))
	if err != nil {
		return err
	}

	docs := make([]interface{}, len(ps))
	for i, p := range ps {
		p.ID = first + int64(i)
		docs[i] = toDoc(p)
	}

	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		// Ordered inserts stop at the first failure. Remove the ones that
		// landed so the batch is all or nothing.
		if rbErr := r.rollbackBlock(first, len(ps)); rbErr != nil {
			return fmt.Errorf("insert patients: %w (rollback: %v)", err, rbErr)
		}
		return fmt.Errorf("insert patients: %w", err)
	}
	return nil
}

func (r *PatientRepository) rollbackBlock(first int64, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$gte": first, "$lt": first + int64(n)}})
	return err
}

func (r *PatientRepository) FindByID(ctx context.Context, id int64) (*domain.Patient, error) {
	var doc patientDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	doc := toDoc(p)
	set := bson.M{
		"name":       doc.Name,
		"diagnosis":  doc.Diagnosis,
		"treatment":  doc.Treatment,
		"doctor":     doc.Doctor,
		"updated_at": doc.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if doc.BirthDate != nil {
		set["birth_date"] = doc.BirthDate
	} else {
		update["$unset"] = bson.M{"birth_date": ""}
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, filter domain.PatientFilter) ([]*domain.Patient, error) {
	cursor, err := r.col.Find(ctx, listFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer cursor.Close(ctx)

	out := []*domain.Patient{}
	for cursor.Next(ctx) {
		var doc patientDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode patient: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

func listFilter(filter domain.PatientFilter) bson.M {
	q := bson.M{}
	if filter.HasRange() {
		q["visit_at"] = bson.M{"$gte": filter.VisitFrom.UTC(), "$lt": filter.VisitTo.UTC()}
	}
	if filter.Search != "" {
		q["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}
	return q
}
