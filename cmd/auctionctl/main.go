// Command auctionctl signs and submits escrow messages to a running
// auctiond.
//
// Every state-changing subcommand signs its message with the Ed25519 key
// given via --key and posts the signed envelope to the service.
//
// # Usage
//
//	auctionctl --service=http://localhost:8080 --key=<hex> setup \
//	    --auction-id=1 --auct-token=<hex32> --auct-amt=1 --bid-token=<hex32> --rsv-amt=100
//	auctionctl --service=... --key=<hex> bid --auction-id=1 --amount=101
//	auctionctl --service=... --key=<hex> claim --auction-id=1
//	auctionctl --service=... get --auction-id=1
//	auctionctl --service=... --admin-token=admin:secret close --auction-id=1
//	auctionctl --service=... height
//	auctionctl --service=... increment
//	auctionctl --service=... advance --by=5
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/flashbots/escrownet/cmd/common"
	"github.com/flashbots/escrownet/ledger"
	"github.com/flashbots/escrownet/protocol"
	"github.com/flashbots/escrownet/services"
)

func main() {
	var (
		serviceURL = flag.String("service", "http://localhost:8080", "Auction service URL")
		keyHex     = flag.String("key", "", "Ed25519 signing key (hex, generates if empty)")
		adminToken = flag.String("admin-token", "", "Admin token for close (user:pass)")

		auctionID = flag.Uint("auction-id", 0, "Auction ID")
		auctToken = flag.String("auct-token", "", "Auctioned token ID (hex)")
		auctAmt   = flag.Uint64("auct-amt", 0, "Auctioned amount held in escrow")
		bidToken  = flag.String("bid-token", "", "Bid token ID (hex)")
		rsvAmt    = flag.Uint64("rsv-amt", 0, "Reserve amount")
		amount    = flag.Uint64("amount", 0, "Bid amount")
		by        = flag.Uint64("by", 0, "Ledger advance amount")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: auctionctl [flags] setup|bid|claim|get|close|height|increment|advance")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}

	var err error
	switch flag.Arg(0) {
	case "setup":
		err = runSetup(client, *serviceURL, *keyHex, uint32(*auctionID), *auctToken, *auctAmt, *bidToken, *rsvAmt)
	case "bid":
		msg := protocol.NewBid(protocol.BidMessage{AuctionID: uint32(*auctionID), Amount: *amount})
		err = submitSigned(client, *serviceURL+"/auction/bid", *keyHex, msg)
	case "claim":
		msg := protocol.NewClaim(protocol.ClaimMessage{AuctionID: uint32(*auctionID)})
		err = submitSigned(client, *serviceURL+"/auction/claim", *keyHex, msg)
	case "get":
		err = doRequest(client, http.MethodGet, fmt.Sprintf("%s/auction/%d", *serviceURL, *auctionID), nil, "")
	case "close":
		err = doRequest(client, http.MethodPost, fmt.Sprintf("%s/admin/close/%d", *serviceURL, *auctionID), nil, *adminToken)
	case "height":
		err = doRequest(client, http.MethodGet, *serviceURL+"/ledger/height", nil, "")
	case "increment":
		err = doRequest(client, http.MethodPost, *serviceURL+"/ledger/increment", nil, "")
	case "advance":
		body, _ := json.Marshal(&services.AdvanceLedgerRequest{By: *by})
		err = doRequest(client, http.MethodPost, *serviceURL+"/ledger/advance", body, "")
	default:
		err = fmt.Errorf("unknown command %q", flag.Arg(0))
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runSetup(client *http.Client, serviceURL, keyHex string, auctionID uint32, auctToken string, auctAmt uint64, bidToken string, rsvAmt uint64) error {
	auctTokenID, err := ledger.NewTokenIDFromString(auctToken)
	if err != nil {
		return fmt.Errorf("auct-token: %w", err)
	}
	bidTokenID, err := ledger.NewTokenIDFromString(bidToken)
	if err != nil {
		return fmt.Errorf("bid-token: %w", err)
	}

	msg := protocol.NewSetup(protocol.SetupMessage{
		AuctionID:     auctionID,
		AuctToken:     auctTokenID,
		AuctAmt:       auctAmt,
		BidToken:      bidTokenID,
		ReserveAmount: rsvAmt,
	})
	return submitSigned(client, serviceURL+"/auction/setup", keyHex, msg)
}

func submitSigned(client *http.Client, url, keyHex string, msg *protocol.EscrowMessage) error {
	signingKey, err := common.LoadOrGenerateSigningKey(keyHex)
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	if keyHex == "" {
		pubKey, _ := signingKey.PublicKey()
		fmt.Printf("Generated key, public key: %s\n", pubKey.String())
	}

	signed, err := protocol.NewSigned(signingKey, msg)
	if err != nil {
		return fmt.Errorf("signing message: %w", err)
	}

	body, err := json.Marshal(signed)
	if err != nil {
		return err
	}
	return doRequest(client, http.MethodPost, url, body, "")
}

func doRequest(client *http.Client, method, url string, body []byte, adminToken string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminToken != "" {
		user, pass := splitAdminToken(adminToken)
		req.SetBasicAuth(user, pass)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	fmt.Println(string(bytes.TrimSpace(respBody)))
	return nil
}

func splitAdminToken(token string) (user, pass string) {
	for i := 0; i < len(token); i++ {
		if token[i] == ':' {
			return token[:i], token[i+1:]
		}
	}
	return token, ""
}
