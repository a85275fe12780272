// Package cashshop 处理点券商城的查询与购买请求
// 扣款通过存储层的条件递减完成，余额不足时不会产生任何变更
package cashshop

import (
	"errors"

	"github.com/life-stream-dev/life-stream-go-map-server/internal/database"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/logger"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/wire"
	"github.com/life-stream-dev/life-stream-go-map-server/internal/world"
)

type ItemAmount struct {
	DataID int
	Amount int
}

// CashShopItem 点券商品，购买后发放金币与物品
type CashShopItem struct {
	ID           int
	Price        int
	ReceiveGold  int
	ReceiveItems []ItemAmount
}

// CashPackage 点券充值包
type CashPackage struct {
	ID         int
	CashAmount int
}

type Handler struct {
	users    database.UserStore
	items    map[int]CashShopItem
	packages map[int]CashPackage
	itemIDs  []int
	packIDs  []int
}

func NewHandler(users database.UserStore, items []CashShopItem, packages []CashPackage) *Handler {
	handler := &Handler{
		users:    users,
		items:    make(map[int]CashShopItem, len(items)),
		packages: make(map[int]CashPackage, len(packages)),
	}
	for _, item := range items {
		handler.items[item.ID] = item
		handler.itemIDs = append(handler.itemIDs, item.ID)
	}
	for _, pack := range packages {
		handler.packages[pack.ID] = pack
		handler.packIDs = append(handler.packIDs, pack.ID)
	}
	return handler
}

// Info 查询余额与商品目录
func (h *Handler) Info(character *world.PlayerCharacter, request wire.CashShopInfoRequest) wire.CashShopInfoResponse {
	response := wire.CashShopInfoResponse{AckID: request.AckID}
	cash, err := h.users.GetCash(character.UserID)
	if err != nil {
		response.ResponseCode = wire.AckError
		response.Error = wire.CashShopErrorUserNotFound
		return response
	}
	response.ResponseCode = wire.AckSuccess
	response.Cash = cash
	response.ItemIDs = append([]int(nil), h.itemIDs...)
	return response
}

// Buy 购买点券商品
// 先原子扣款，成功后向角色发放金币与物品
func (h *Handler) Buy(character *world.PlayerCharacter, request wire.CashShopBuyRequest) wire.CashShopBuyResponse {
	response := wire.CashShopBuyResponse{AckID: request.AckID}

	if character == nil {
		response.ResponseCode = wire.AckError
		response.Error = wire.CashShopErrorCharacterNotFound
		return response
	}

	item, ok := h.items[request.ItemID]
	if !ok {
		response.ResponseCode = wire.AckError
		response.Error = wire.CashShopErrorItemNotFound
		return response
	}

	remaining, err := h.users.DecreaseCash(character.UserID, item.Price)
	if err != nil {
		response.ResponseCode = wire.AckError
		response.Error = debitError(err)
		if balance, balanceErr := h.users.GetCash(character.UserID); balanceErr == nil {
			response.Cash = balance
		}
		return response
	}

	if item.ReceiveGold > 0 {
		character.AddGold(item.ReceiveGold)
	}
	for _, receive := range item.ReceiveItems {
		character.AddItem(receive.DataID, receive.Amount)
	}

	logger.InfoF("User %s bought cash shop item %d for %d cash", character.UserID, item.ID, item.Price)
	response.ResponseCode = wire.AckSuccess
	response.Cash = remaining
	return response
}

// PackageInfo 查询余额与充值包目录
func (h *Handler) PackageInfo(character *world.PlayerCharacter, request wire.CashShopInfoRequest) wire.CashPackageInfoResponse {
	response := wire.CashPackageInfoResponse{AckID: request.AckID}
	cash, err := h.users.GetCash(character.UserID)
	if err != nil {
		response.ResponseCode = wire.AckError
		response.Error = wire.CashShopErrorUserNotFound
		return response
	}
	response.ResponseCode = wire.AckSuccess
	response.Cash = cash
	response.PackageIDs = append([]int(nil), h.packIDs...)
	return response
}

// BuyPackage 购买充值包，向用户钱包增加点券
func (h *Handler) BuyPackage(character *world.PlayerCharacter, request wire.CashPackageBuyRequest) wire.CashPackageBuyResponse {
	response := wire.CashPackageBuyResponse{AckID: request.AckID, PackageID: request.PackageID}

	if character == nil {
		response.ResponseCode = wire.AckError
		response.Error = wire.CashShopErrorCharacterNotFound
		return response
	}

	pack, ok := h.packages[request.PackageID]
	if !ok {
		response.ResponseCode = wire.AckError
		response.Error = wire.CashShopErrorPackageNotFound
		return response
	}

	balance, err := h.users.IncreaseCash(character.UserID, pack.CashAmount)
	if err != nil {
		response.ResponseCode = wire.AckError
		if errors.Is(err, database.ErrNotFound) {
			response.Error = wire.CashShopErrorUserNotFound
		} else {
			logger.ErrorF("Fail to grant cash package %d to user %s: %v", pack.ID, character.UserID, err)
			response.Error = wire.CashShopErrorUserNotFound
		}
		return response
	}

	logger.InfoF("User %s bought cash package %d (+%d cash)", character.UserID, pack.ID, pack.CashAmount)
	response.ResponseCode = wire.AckSuccess
	response.Cash = balance
	return response
}

func debitError(err error) wire.CashShopError {
	switch {
	case errors.Is(err, database.ErrNotEnoughCash):
		return wire.CashShopErrorNotEnoughCash
	case errors.Is(err, database.ErrNotFound):
		return wire.CashShopErrorUserNotFound
	default:
		return wire.CashShopErrorUserNotFound
	}
}

// DefaultCatalog 内置商品与充值包目录
// TODO: 从配置或数据表加载目录，避免改价需要重新编译
func DefaultCatalog() ([]CashShopItem, []CashPackage) {
	items := []CashShopItem{
		{ID: 1, Price: 50, ReceiveGold: 1000},
		{ID: 2, Price: 150, ReceiveItems: []ItemAmount{{DataID: 101, Amount: 1}}},
		{ID: 3, Price: 300, ReceiveGold: 2000, ReceiveItems: []ItemAmount{{DataID: 102, Amount: 5}}},
	}
	packages := []CashPackage{
		{ID: 1, CashAmount: 100},
		{ID: 2, CashAmount: 550},
		{ID: 3, CashAmount: 1200},
	}
	return items, packages
}
