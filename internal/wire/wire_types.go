package wire

type MessageType byte

const (
	AUTH MessageType = iota + 1
	AUTHACK
	CHAT
	WARP
	WARPNOTIFY
	CASHSHOPINFO
	CASHSHOPBUY
	CASHPACKAGEINFO
	CASHPACKAGEBUY
	UPDATEMAPUSER
	UPDATEPARTYMEMBER
	UPDATEPARTY
	REGISTERAPPSERVER
	RESPONSEAPPSERVERADDRESS
	DISCONNECT
)

func (t MessageType) String() string {
	switch t {
	case AUTH:
		return "AUTH"
	case AUTHACK:
		return "AUTHACK"
	case CHAT:
		return "CHAT"
	case WARP:
		return "WARP"
	case WARPNOTIFY:
		return "WARPNOTIFY"
	case CASHSHOPINFO:
		return "CASHSHOPINFO"
	case CASHSHOPBUY:
		return "CASHSHOPBUY"
	case CASHPACKAGEINFO:
		return "CASHPACKAGEINFO"
	case CASHPACKAGEBUY:
		return "CASHPACKAGEBUY"
	case UPDATEMAPUSER:
		return "UPDATEMAPUSER"
	case UPDATEPARTYMEMBER:
		return "UPDATEPARTYMEMBER"
	case UPDATEPARTY:
		return "UPDATEPARTY"
	case REGISTERAPPSERVER:
		return "REGISTERAPPSERVER"
	case RESPONSEAPPSERVERADDRESS:
		return "RESPONSEAPPSERVERADDRESS"
	case DISCONNECT:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}

// UpdateType 社交状态同步消息的更新类型
type UpdateType byte

const (
	UpdateAdd UpdateType = iota + 1
	UpdateRemove
	UpdateOnline
	UpdateSetting
	UpdateTerminate
)

type AckResponseCode byte

const (
	AckSuccess AckResponseCode = iota + 1
	AckError
)

type PeerType byte

const (
	PeerMapServer PeerType = iota + 1
	PeerChatServer
)

// PeerInfo 中心服务器推送的对端服务器描述
type PeerInfo struct {
	PeerType   PeerType `json:"peer_type"`
	Address    string   `json:"address"`
	Port       int      `json:"port"`
	ConnectKey string   `json:"connect_key"`
	Extra      string   `json:"extra"` // 地图服务器的地图名
}

type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

type AuthPayload struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	CharacterID string `json:"character_id"`
}

type AuthAckPayload struct {
	ResponseCode AckResponseCode `json:"response_code"`
	CharacterID  string          `json:"character_id"`
}

type ChatPayload struct {
	Channel  string `json:"channel"`
	Message  string `json:"message"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

type WarpPayload struct {
	MapName  string  `json:"map_name"`
	Position Vector3 `json:"position"`
}

// WarpNotifyPayload 通知客户端重连到目标地图服务器
type WarpNotifyPayload struct {
	MapName    string `json:"map_name"`
	Address    string `json:"address"`
	Port       int    `json:"port"`
	ConnectKey string `json:"connect_key"`
}

type MapUserPayload struct {
	Type          UpdateType `json:"type"`
	UserID        string     `json:"user_id"`
	CharacterID   string     `json:"character_id"`
	CharacterName string     `json:"character_name"`
}

type PartyMemberPayload struct {
	Type          UpdateType `json:"type"`
	PartyID       int        `json:"party_id"`
	CharacterID   string     `json:"character_id"`
	CharacterName string     `json:"character_name"`
	DataID        int        `json:"data_id"`
	Level         int        `json:"level"`
	CurrentHp     int        `json:"current_hp"`
	MaxHp         int        `json:"max_hp"`
	CurrentMp     int        `json:"current_mp"`
	MaxMp         int        `json:"max_mp"`
}

type PartyPayload struct {
	Type      UpdateType `json:"type"`
	PartyID   int        `json:"party_id"`
	ShareExp  bool       `json:"share_exp"`
	ShareItem bool       `json:"share_item"`
}

type RegisterAppServerPayload struct {
	PeerInfo PeerInfo `json:"peer_info"`
}

type ResponseAppServerAddressPayload struct {
	ResponseCode AckResponseCode `json:"response_code"`
	PeerInfo     PeerInfo        `json:"peer_info"`
}

type CashShopInfoRequest struct {
	AckID uint16 `json:"ack_id"`
}

type CashShopError byte

const (
	CashShopErrorNone CashShopError = iota
	CashShopErrorUserNotFound
	CashShopErrorCharacterNotFound
	CashShopErrorItemNotFound
	CashShopErrorPackageNotFound
	CashShopErrorNotEnoughCash
)

type CashShopInfoResponse struct {
	AckID        uint16          `json:"ack_id"`
	ResponseCode AckResponseCode `json:"response_code"`
	Error        CashShopError   `json:"error"`
	Cash         int             `json:"cash"`
	ItemIDs      []int           `json:"item_ids"`
}

type CashShopBuyRequest struct {
	AckID  uint16 `json:"ack_id"`
	ItemID int    `json:"item_id"`
}

type CashShopBuyResponse struct {
	AckID        uint16          `json:"ack_id"`
	ResponseCode AckResponseCode `json:"response_code"`
	Error        CashShopError   `json:"error"`
	Cash         int             `json:"cash"`
}

type CashPackageInfoResponse struct {
	AckID        uint16          `json:"ack_id"`
	ResponseCode AckResponseCode `json:"response_code"`
	Error        CashShopError   `json:"error"`
	Cash         int             `json:"cash"`
	PackageIDs   []int           `json:"package_ids"`
}

type CashPackageBuyRequest struct {
	AckID     uint16 `json:"ack_id"`
	PackageID int    `json:"package_id"`
}

type CashPackageBuyResponse struct {
	AckID        uint16          `json:"ack_id"`
	ResponseCode AckResponseCode `json:"response_code"`
	Error        CashShopError   `json:"error"`
	PackageID    int             `json:"package_id"`
	Cash         int             `json:"cash"`
}
