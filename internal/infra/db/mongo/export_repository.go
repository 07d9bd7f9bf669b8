package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainexport "staycal/internal/domain/export"
)

type ExportRepository struct {
	col *mongo.Collection
}

func NewExportRepository(db *mongo.Database) *ExportRepository {
	return &ExportRepository{col: db.Collection("export_artifacts")}
}

func (r *ExportRepository) ByProperty(ctx context.Context, propertyID string) (*domainexport.Artifact, error) {
	var doc exportDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": propertyID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainexport.ErrArtifactNotFound
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

func (r *ExportRepository) Upsert(ctx context.Context, a domainexport.Artifact) error {
	doc := exportDocument{
		PropertyID:       a.PropertyID,
		URL:              a.URL,
		Filename:         a.Filename,
		FilePath:         a.FilePath,
		TotalBlockedDays: a.TotalBlockedDays,
		UpdatedAt:        a.UpdatedAt.UnixMilli(),
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.PropertyID}, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *ExportRepository) Delete(ctx context.Context, propertyID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": propertyID})
	return err
}

type exportDocument struct {
	PropertyID       string `bson:"_id"`
	URL              string `bson:"url"`
	Filename         string `bson:"filename"`
	FilePath         string `bson:"file_path"`
	TotalBlockedDays int    `bson:"total_blocked_days"`
	UpdatedAt        int64  `bson:"updated_at"`
}

func (d exportDocument) toRecord() *domainexport.Artifact {
	return &domainexport.Artifact{
		PropertyID:       d.PropertyID,
		URL:              d.URL,
		Filename:         d.Filename,
		FilePath:         d.FilePath,
		TotalBlockedDays: d.TotalBlockedDays,
		UpdatedAt:        timestampToTime(d.UpdatedAt),
	}
}
