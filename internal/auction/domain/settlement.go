package domain

import (
	"fmt"
	"time"

	userdomain "github.com/cristianortiz/auctionEase/internal/user/domain"
	"github.com/google/uuid"
)

// MessageKind tells the buyer and seller messages apart.
type MessageKind string

const (
	MessageToBuyer  MessageKind = "buyer_won"
	MessageToSeller MessageKind = "seller_sold"
)

// Message is one outcome notification addressed to a single user.
type Message struct {
	Kind      MessageKind
	AuctionID uuid.UUID
	To        userdomain.User
	Subject   string
	Body      string
}

// SettlementOutcome pairs a claimed auction with its final winning bid. A nil
// WinningBid means the auction closed without a sale.
type SettlementOutcome struct {
	Auction     *Auction
	WinningBid  *Bid
	ClaimedAt   time.Time
	Buyer       *userdomain.User
	Seller      *userdomain.User
	Delivered   int
	DeliveryErr string
}

// Sold reports whether the auction ended with a winning bid.
func (o *SettlementOutcome) Sold() bool {
	return o.WinningBid != nil
}

// BuyerMessage is the congratulation sent to the winning bidder, carrying the
// seller's contact.
func BuyerMessage(auction *Auction, bid *Bid, buyer, seller userdomain.User) Message {
	return Message{
		Kind:      MessageToBuyer,
		AuctionID: auction.ID,
		To:        buyer,
		Subject:   "Congratulations! You won the bid!",
		Body: fmt.Sprintf(
			"Dear %s,\n\nCongratulations! You have won the bid for %q. Here are the details:\n\n"+
				"Bid Amount: %s\nTime of Bid: %s\n\n"+
				"Please contact the seller %s (%s) for further instructions.\n\n"+
				"Thank you for using our auction platform.",
			buyer.Username, auction.Name, bid.Amount.StringFixed(2), bid.Timestamp.Format(time.RFC3339),
			seller.Username, seller.Email,
		),
	}
}

// SellerMessage tells the seller the item sold, carrying the winner's contact.
func SellerMessage(auction *Auction, bid *Bid, buyer, seller userdomain.User) Message {
	return Message{
		Kind:      MessageToSeller,
		AuctionID: auction.ID,
		To:        seller,
		Subject:   "Your product has been sold!",
		Body: fmt.Sprintf(
			"Dear %s,\n\nYour product %q has been sold. Here are the details of the winning bid:\n\n"+
				"Bid Amount: %s\nTime of Bid: %s\n\n"+
				"The winning bidder's details:\nUsername: %s\nEmail: %s\n\n"+
				"Please contact the winning bidder for further arrangements.\n\n"+
				"Thank you for using our auction platform.",
			seller.Username, auction.Name, bid.Amount.StringFixed(2), bid.Timestamp.Format(time.RFC3339),
			buyer.Username, buyer.Email,
		),
	}
}
