package services

import (
	"context"
	"testing"

	"go-storefront/models"
	"go-storefront/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestProduct(name string, price float64) *models.Product {
	return &models.Product{
		ID:     primitive.NewObjectID(),
		Name:   name,
		Price:  price,
		Images: []models.ProductImage{{URL: "https://img.example/" + name + ".jpg"}},
	}
}

func TestAddProductCreatesCart(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))

	owner := models.GuestOwner("guest_abc")
	cart, err := svc.AddProduct(context.Background(), owner, AddProductInput{
		ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red",
	})
	require.NoError(t, err)

	require.Len(t, cart.Products, 1)
	assert.Equal(t, "shirt", cart.Products[0].Name)
	assert.Equal(t, "https://img.example/shirt.jpg", cart.Products[0].Image)
	assert.Equal(t, 2, cart.Products[0].Quantity)
	assert.Equal(t, 30.0, cart.TotalPrice)
	assert.Equal(t, "guest_abc", cart.GuestID)
	assert.True(t, cart.UserID.IsZero())
}

func TestAddProductIncrementsMatchingLine(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)
	cart, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red"})
	require.NoError(t, err)

	require.Len(t, cart.Products, 1)
	assert.Equal(t, 3, cart.Products[0].Quantity)
	assert.Equal(t, 45.0, cart.TotalPrice)
}

func TestAddProductDistinctVariantsAreDistinctLines(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	hat := newTestProduct("hat", 25)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt, hat))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red"})
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "L", Color: "Red"})
	require.NoError(t, err)
	cart, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: hat.ID, Quantity: 1, Size: "", Color: "Blue"})
	require.NoError(t, err)

	assert.Len(t, cart.Products, 3)
	assert.Equal(t, 15.0*2+15.0+25.0, cart.TotalPrice)
}

func TestAddProductUnknownProduct(t *testing.T) {
	svc := NewCartService(newMockCartStore(), newMockCatalog())

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{
		ProductID: primitive.NewObjectID(), Quantity: 1,
	})
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestAddProductRejectsNonPositiveQuantity(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt))

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{
		ProductID: shirt.ID, Quantity: 0,
	})
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))
}

func TestAddProductRetriesOnVersionConflict(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	carts.conflicts = 2
	cart, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Products[0].Quantity)
}

func TestAddProductGivesUpAfterRepeatedConflicts(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	carts.conflicts = versionRetries
	_, err = svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
}

// firstMissCartStore makes the first GetByOwner calls miss, simulating a
// concurrent first-add inserting the cart between lookup and insert.
type firstMissCartStore struct {
	*mockCartStore
	misses int
}

func (s *firstMissCartStore) GetByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	if s.misses > 0 {
		s.misses--
		return nil, store.ErrNotFound
	}
	return s.mockCartStore.GetByOwner(ctx, owner)
}

func TestAddProductFoldsIntoConcurrentlyCreatedCart(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := &firstMissCartStore{mockCartStore: newMockCartStore(), misses: 1}
	svc := NewCartService(carts, newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	// Another request's cart lands first; the unique owner index turns our
	// insert into ErrDuplicate and the add folds into the existing cart.
	existing := &models.Cart{
		GuestID: "guest_abc",
		Products: []models.CartItem{{
			ProductID: shirt.ID, Name: "shirt", Price: 15, Size: "M", Color: "Red", Quantity: 1,
		}},
	}
	existing.RecomputeTotal()
	require.NoError(t, carts.mockCartStore.Insert(context.Background(), existing))

	cart, err := svc.AddProduct(context.Background(), owner, AddProductInput{
		ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red",
	})
	require.NoError(t, err)

	require.Len(t, cart.Products, 1)
	assert.Equal(t, 3, cart.Products[0].Quantity)
	assert.Equal(t, 45.0, cart.TotalPrice)
	assert.Len(t, carts.mockCartStore.carts, 1, "one owner must never hold two carts")
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), owner, shirt.ID, 5, "M", "Red")
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Products[0].Quantity)
	assert.Equal(t, 75.0, cart.TotalPrice)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red"})
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), owner, shirt.ID, 0, "M", "Red")
	require.NoError(t, err)
	assert.Empty(t, cart.Products)
	assert.Equal(t, 0.0, cart.TotalPrice)
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(context.Background(), owner, shirt.ID, 2, "L", "Red")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestUpdateQuantityNoCart(t *testing.T) {
	svc := NewCartService(newMockCartStore(), newMockCatalog())

	_, err := svc.UpdateQuantity(context.Background(), models.GuestOwner("guest_abc"), primitive.NewObjectID(), 2, "M", "Red")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestRemoveProduct(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	hat := newTestProduct("hat", 25)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt, hat))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red"})
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: hat.ID, Quantity: 1, Size: "", Color: "Blue"})
	require.NoError(t, err)

	cart, err := svc.RemoveProduct(context.Background(), owner, shirt.ID, "M", "Red")
	require.NoError(t, err)
	require.Len(t, cart.Products, 1)
	assert.Equal(t, hat.ID, cart.Products[0].ProductID)
	assert.Equal(t, 25.0, cart.TotalPrice)

	_, err = svc.RemoveProduct(context.Background(), owner, shirt.ID, "M", "Red")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestMergeGuestCartSumsQuantities(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))
	userID := primitive.NewObjectID()

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), models.UserOwner(userID), AddProductInput{ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red"})
	require.NoError(t, err)

	merged, err := svc.MergeGuestCart(context.Background(), "guest_abc", userID)
	require.NoError(t, err)
	require.Len(t, merged.Products, 1)
	assert.Equal(t, 3, merged.Products[0].Quantity)
	assert.Equal(t, 45.0, merged.TotalPrice)

	_, err = svc.GetCart(context.Background(), models.GuestOwner("guest_abc"))
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestMergeRekeysGuestCartWhenUserHasNone(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt))
	userID := primitive.NewObjectID()

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	merged, err := svc.MergeGuestCart(context.Background(), "guest_abc", userID)
	require.NoError(t, err)
	assert.Equal(t, userID, merged.UserID)
	assert.Empty(t, merged.GuestID)

	_, err = svc.GetCart(context.Background(), models.GuestOwner("guest_abc"))
	require.Error(t, err)
}

func TestMergeIsIdempotentUnderRetry(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	svc := NewCartService(newMockCartStore(), newMockCatalog(shirt))
	userID := primitive.NewObjectID()

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	first, err := svc.MergeGuestCart(context.Background(), "guest_abc", userID)
	require.NoError(t, err)

	// Retrying finds no guest cart and returns the user cart unchanged.
	second, err := svc.MergeGuestCart(context.Background(), "guest_abc", userID)
	require.NoError(t, err)
	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, first.TotalPrice, second.TotalPrice)
}

func TestMergeRetriesOnVersionConflict(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))
	userID := primitive.NewObjectID()

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), models.UserOwner(userID), AddProductInput{ProductID: shirt.ID, Quantity: 2, Size: "M", Color: "Red"})
	require.NoError(t, err)

	carts.conflicts = 2
	merged, err := svc.MergeGuestCart(context.Background(), "guest_abc", userID)
	require.NoError(t, err)
	require.Len(t, merged.Products, 1)
	assert.Equal(t, 3, merged.Products[0].Quantity)
}

func TestMergeRekeyRetriesOnVersionConflict(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))
	userID := primitive.NewObjectID()

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	carts.conflicts = 2
	merged, err := svc.MergeGuestCart(context.Background(), "guest_abc", userID)
	require.NoError(t, err)
	assert.Equal(t, userID, merged.UserID)
	assert.Empty(t, merged.GuestID)
}

func TestMergeGivesUpAfterRepeatedConflicts(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))
	userID := primitive.NewObjectID()

	_, err := svc.AddProduct(context.Background(), models.GuestOwner("guest_abc"), AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)

	carts.conflicts = versionRetries
	_, err = svc.MergeGuestCart(context.Background(), "guest_abc", userID)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
}

func TestMergeEmptyGuestCartRejected(t *testing.T) {
	shirt := newTestProduct("shirt", 15)
	carts := newMockCartStore()
	svc := NewCartService(carts, newMockCatalog(shirt))
	owner := models.GuestOwner("guest_abc")

	_, err := svc.AddProduct(context.Background(), owner, AddProductInput{ProductID: shirt.ID, Quantity: 1, Size: "M", Color: "Red"})
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(context.Background(), owner, shirt.ID, 0, "M", "Red")
	require.NoError(t, err)

	_, err = svc.MergeGuestCart(context.Background(), "guest_abc", primitive.NewObjectID())
	require.Error(t, err)
	assert.Equal(t, CodeBadRequest, CodeOf(err))
}

func TestMergeWithNeitherCart(t *testing.T) {
	svc := NewCartService(newMockCartStore(), newMockCatalog())

	_, err := svc.MergeGuestCart(context.Background(), "guest_abc", primitive.NewObjectID())
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestMergeRequiresIdentity(t *testing.T) {
	svc := NewCartService(newMockCartStore(), newMockCatalog())

	_, err := svc.MergeGuestCart(context.Background(), "guest_abc", primitive.NilObjectID)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	_, err = svc.MergeGuestCart(context.Background(), "", primitive.NewObjectID())
	assert.Equal(t, CodeBadRequest, CodeOf(err))
}
