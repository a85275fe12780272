package cashshop

import (
	"testing"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, cash int) (*Handler, *database.MemoryStore, *world.PlayerCharacter) {
	t.Helper()
	store := database.NewMemoryStore()
	store.PutUser(&database.UserData{UserID: "user-1", AccessToken: "token", Cash: cash})

	manager := world.NewManager("Town", store)
	character, err := manager.SpawnCharacter("conn-1", &database.CharacterData{
		ID:     "char-1",
		UserID: "user-1",
		Name:   "Tester",
		Gold:   500,
	})
	require.NoError(t, err)

	items, packages := DefaultCatalog()
	return NewHandler(store, items, packages), store, character
}

func TestCashShopInfo(t *testing.T) {
	handler, _, character := newTestHandler(t, 250)

	response := handler.Info(character, wire.CashShopInfoRequest{AckID: 3})
	assert.Equal(t, uint16(3), response.AckID)
	assert.Equal(t, wire.AckSuccess, response.ResponseCode)
	assert.Equal(t, 250, response.Cash)
	assert.Equal(t, []int{1, 2, 3}, response.ItemIDs)
}

func TestBuyNotEnoughCash(t *testing.T) {
	handler, store, character := newTestHandler(t, 100)

	// 商品2价格150，余额100
	response := handler.Buy(character, wire.CashShopBuyRequest{AckID: 1, ItemID: 2})
	assert.Equal(t, wire.AckError, response.ResponseCode)
	assert.Equal(t, wire.CashShopErrorNotEnoughCash, response.Error)
	assert.Equal(t, 100, response.Cash)

	cash, err := store.GetCash("user-1")
	require.NoError(t, err)
	assert.Equal(t, 100, cash)
	assert.Empty(t, character.Items())
}

func TestBuyDebitsExactPrice(t *testing.T) {
	handler, store, character := newTestHandler(t, 400)
	goldBefore := character.Gold()

	response := handler.Buy(character, wire.CashShopBuyRequest{AckID: 2, ItemID: 3})
	require.Equal(t, wire.AckSuccess, response.ResponseCode)
	assert.Equal(t, wire.CashShopErrorNone, response.Error)
	assert.Equal(t, 100, response.Cash)

	cash, err := store.GetCash("user-1")
	require.NoError(t, err)
	assert.Equal(t, 100, cash)

	assert.Equal(t, goldBefore+2000, character.Gold())
	items := character.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 102, items[0].DataID)
	assert.Equal(t, 5, items[0].Amount)
}

func TestBuyUnknownItem(t *testing.T) {
	handler, store, character := newTestHandler(t, 400)

	response := handler.Buy(character, wire.CashShopBuyRequest{AckID: 4, ItemID: 99})
	assert.Equal(t, wire.AckError, response.ResponseCode)
	assert.Equal(t, wire.CashShopErrorItemNotFound, response.Error)

	cash, err := store.GetCash("user-1")
	require.NoError(t, err)
	assert.Equal(t, 400, cash)
}

func TestBuyPackageGrantsCash(t *testing.T) {
	handler, store, character := newTestHandler(t, 50)

	response := handler.BuyPackage(character, wire.CashPackageBuyRequest{AckID: 5, PackageID: 2})
	require.Equal(t, wire.AckSuccess, response.ResponseCode)
	assert.Equal(t, 2, response.PackageID)
	assert.Equal(t, 600, response.Cash)

	cash, err := store.GetCash("user-1")
	require.NoError(t, err)
	assert.Equal(t, 600, cash)
}

func TestBuyPackageUnknownPackage(t *testing.T) {
	handler, _, character := newTestHandler(t, 50)

	response := handler.BuyPackage(character, wire.CashPackageBuyRequest{AckID: 6, PackageID: 42})
	assert.Equal(t, wire.AckError, response.ResponseCode)
	assert.Equal(t, wire.CashShopErrorPackageNotFound, response.Error)
}
