package stream

import (
	"github.com/tidwall/gjson"
)

// Channels a market can be subscribed to.
const (
	ChannelOrderBook = "orderbook"
	ChannelAmm       = "amm"
	ChannelFees      = "fees"
)

// Channels lists every channel subscribed per market.
var Channels = []string{ChannelOrderBook, ChannelAmm, ChannelFees}

// SubscribeRequest asks the server for snapshots on channel:market topics.
type SubscribeRequest struct {
	ID     string   `json:"id"`
	Method string   `json:"method"`
	Topics []string `json:"topics"`
	Token  string   `json:"token,omitempty"`
}

// Topic names one market's channel, e.g. "orderbook:BTC-USDC".
func Topic(channel, marketID string) string {
	return channel + ":" + marketID
}

// envelope is the routing header of an inbound message. The payload under
// "data" is left raw and decoded by the channel's handler.
//
//	{"channel": "orderbook", "market": "BTC-USDC", "data": {...}}
//	{"type": "subscribed", "id": "..."}
//	{"type": "error", "id": "...", "message": "..."}
type envelope struct {
	Type    string
	Channel string
	Market  string
	ID      string
	Message string
	Data    []byte
}

func parseEnvelope(msg []byte) (envelope, bool) {
	if !gjson.ValidBytes(msg) {
		return envelope{}, false
	}
	r := gjson.GetManyBytes(msg, "type", "channel", "market", "id", "message", "data")
	env := envelope{
		Type:    r[0].String(),
		Channel: r[1].String(),
		Market:  r[2].String(),
		ID:      r[3].String(),
		Message: r[4].String(),
	}
	if r[5].Exists() {
		env.Data = []byte(r[5].Raw)
	}
	return env, true
}
