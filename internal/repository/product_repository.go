package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"product-api/internal/models"
	"product-api/internal/schema"
)

const (
	writeTimeout = 5 * time.Second
	findTimeout  = 3 * time.Second
	queryTimeout = 10 * time.Second

	defaultPageSize = 10
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

type ProductRepository struct {
	collection *mongo.Collection
	validator  *schema.Validator
}

func NewProductRepository(collection *mongo.Collection, validator *schema.Validator) *ProductRepository {
	return &ProductRepository{
		collection: collection,
		validator:  validator,
	}
}

// EnsureIndexes crea los índices declarados en el esquema
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.collection.Indexes().CreateMany(ctx, schema.Indexes()); err != nil {
		return translateError("error creating indexes", err)
	}
	return nil
}

// FindAll lista productos, más recientes primero
func (r *ProductRepository) FindAll(ctx context.Context, filter map[string]any) ([]*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	products, err := r.find(ctx, toBSON(filter), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translateError("error fetching products", err)
	}
	return products, nil
}

// FindByID obtiene un producto por ID. Devuelve nil si no existe o si el
// ID no es un ObjectID válido.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, findTimeout)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		err = translateError("error finding product", err)
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &product, nil
}

// Create valida y guarda un producto nuevo
func (r *ProductRepository) Create(ctx context.Context, input *models.ProductInput) (*models.Product, error) {
	schema.NormalizeInput(input)
	if err := r.validator.Validate(input); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	product := schema.NewProduct(input)
	product.ID = primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return nil, translateError("error creating product", err)
	}

	return product, nil
}

// Update aplica una actualización parcial y devuelve el documento resultante
func (r *ProductRepository) Update(ctx context.Context, id string, update *models.ProductUpdate) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	schema.NormalizeUpdate(update)
	if err := r.validator.Validate(update); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	set := schema.UpdateFields(update)
	set["updatedAt"] = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		err = translateError("error updating product", err)
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &product, nil
}

// Delete borra el producto y devuelve su última versión
func (r *ProductRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var product models.Product
	err = r.collection.FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		err = translateError("error deleting product", err)
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &product, nil
}

// Search busca por nombre o descripción usando el índice de texto
func (r *ProductRepository) Search(ctx context.Context, term string) ([]*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	score := bson.M{"score": bson.M{"$meta": "textScore"}}
	opts := options.Find().SetProjection(score).SetSort(score)

	products, err := r.find(ctx, bson.M{"$text": bson.M{"$search": term}}, opts)
	if err != nil {
		return nil, translateError("error searching products", err)
	}
	return products, nil
}

func (r *ProductRepository) FindByStatus(ctx context.Context, status models.Status) ([]*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	products, err := r.find(ctx, bson.M{"status": status}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translateError("error finding products by status", err)
	}
	return products, nil
}

// FindPaginated devuelve una página (base 1) y los metadatos de paginación
func (r *ProductRepository) FindPaginated(ctx context.Context, page, pageSize int64, filter map[string]any) (*models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	query := toBSON(filter)

	// Una página cuyo skip no cabe en int64 está siempre vacía
	products := make([]*models.Product, 0)
	if page-1 <= math.MaxInt64/pageSize {
		opts := options.Find().
			SetSort(newestFirst).
			SetSkip((page - 1) * pageSize).
			SetLimit(pageSize)

		var err error
		products, err = r.find(ctx, query, opts)
		if err != nil {
			return nil, translateError("error fetching paginated products", err)
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, translateError("error fetching paginated products", err)
	}

	totalPages := int64(math.Ceil(float64(total) / float64(pageSize)))
	return &models.Page{
		Products:    products,
		TotalPages:  totalPages,
		CurrentPage: page,
		Total:       total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// FindLowStock lista productos disponibles con stock <= threshold
func (r *ProductRepository) FindLowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"stock":  bson.M{"$lte": threshold},
		"status": models.StatusAvailable,
	}
	opts := options.Find().SetSort(bson.D{{Key: "stock", Value: 1}})

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, translateError("error finding low stock products", err)
	}
	return products, nil
}

// GetStats calcula totales, precio medio y el desglose por estado
func (r *ProductRepository) GetStats(ctx context.Context) (*models.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const op = "error calculating product stats"

	totals := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalProducts", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "averagePrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "totalStock", Value: bson.D{{Key: "$sum", Value: "$stock"}}},
			{Key: "lowStockCount", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$lte", Value: bson.A{"$stock", schema.LowStockThreshold}}}, 1, 0,
				}},
			}}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, totals)
	if err != nil {
		return nil, translateError(op, err)
	}
	var rows []models.Stats
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translateError(op, err)
	}

	stats := &models.Stats{}
	if len(rows) > 0 {
		*stats = rows[0]
	}

	byStatus := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err = r.collection.Aggregate(ctx, byStatus)
	if err != nil {
		return nil, translateError(op, err)
	}
	breakdown := make([]models.StatusCount, 0)
	if err := cursor.All(ctx, &breakdown); err != nil {
		return nil, translateError(op, err)
	}
	stats.StatusBreakdown = breakdown

	return stats, nil
}

// SKUExists indica si otro producto ya usa el SKU. excludeID puede estar vacío.
func (r *ProductRepository) SKUExists(ctx context.Context, sku, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, findTimeout)
	defer cancel()

	query := bson.M{"sku": schema.NormalizeSKU(sku)}
	if objID, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		query["_id"] = bson.M{"$ne": objID}
	}

	n, err := r.collection.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, translateError("error checking SKU", err)
	}
	return n > 0, nil
}

// BulkUpdateStock aplica cada actualización de forma independiente. Los
// elementos con ID inválido, sin stock o con stock negativo se descartan.
func (r *ProductRepository) BulkUpdateStock(ctx context.Context, updates []models.StockUpdate) (*models.BulkUpdateResult, error) {
	result := &models.BulkUpdateResult{Skipped: make([]models.BulkSkip, 0)}

	writes := make([]mongo.WriteModel, 0, len(updates))
	writeIDs := make([]string, 0, len(updates))
	for _, u := range updates {
		objID, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			result.Skipped = append(result.Skipped, models.BulkSkip{ID: u.ID, Reason: "invalid product ID"})
			continue
		}
		if u.Stock == nil {
			result.Skipped = append(result.Skipped, models.BulkSkip{ID: u.ID, Reason: "Stock is required"})
			continue
		}
		if *u.Stock < 0 {
			result.Skipped = append(result.Skipped, models.BulkSkip{ID: u.ID, Reason: "Stock cannot be negative"})
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": objID}).
			SetUpdate(bson.M{"$set": bson.M{
				"stock":     *u.Stock,
				"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
			}}))
		writeIDs = append(writeIDs, u.ID)
	}

	if len(writes) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if res != nil {
		result.Matched = res.MatchedCount
		result.Modified = res.ModifiedCount
	}
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) && bwe.WriteConcernError == nil && res != nil {
			// Fallos por elemento; el resto ya se aplicó
			for _, we := range bwe.WriteErrors {
				if we.Index >= 0 && we.Index < len(writeIDs) {
					result.Skipped = append(result.Skipped, models.BulkSkip{ID: writeIDs[we.Index], Reason: we.Message})
				}
			}
			return result, nil
		}
		return nil, translateError("error bulk updating stock", err)
	}

	return result, nil
}

// BulkDelete borra todos los productos cuyos IDs sean válidos
func (r *ProductRepository) BulkDelete(ctx context.Context, ids []string) (*models.BulkDeleteResult, error) {
	result := &models.BulkDeleteResult{Skipped: make([]models.BulkSkip, 0)}

	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			result.Skipped = append(result.Skipped, models.BulkSkip{ID: id, Reason: "invalid product ID"})
			continue
		}
		objIDs = append(objIDs, objID)
	}

	if len(objIDs) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, translateError("error bulk deleting products", err)
	}
	result.Deleted = res.DeletedCount

	return result, nil
}

func (r *ProductRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// toBSON convierte el filtro de igualdad; "id" se traduce a "_id"
func toBSON(filter map[string]any) bson.M {
	query := bson.M{}
	for k, v := range filter {
		if k == "id" || k == "_id" {
			if s, ok := v.(string); ok {
				if objID, err := primitive.ObjectIDFromHex(s); err == nil {
					v = objID
				}
			}
			k = "_id"
		}
		query[k] = v
	}
	return query
}
