package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hqchain/hqchain/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// netTimeout bounds every request made to a peer.
const netTimeout = 10 * time.Second

// Registration is returned to a node registering with this node. It
// carries the full chain and the peers this node knows about.
type Registration struct {
	Listing
	Peers []string `json:"peers"`
}

// NodeAddress is the payload a node posts to register with a peer.
type NodeAddress struct {
	NodeAddress string `json:"node_address"`
}

// =============================================================================

// AddKnownPeer adds the peer to the known peers and rewrites the peer file.
// It reports whether the peer was new.
func (s *State) AddKnownPeer(pr peer.Peer) (bool, error) {
	if pr.Match(s.host) || !s.knownPeers.Add(pr) {
		return false, nil
	}

	s.evHandler("state: AddKnownPeer: peer[%s]", pr)

	if s.peersPath == "" {
		return true, nil
	}

	if err := s.knownPeers.Save(s.peersPath); err != nil {
		return true, err
	}

	return true, nil
}

// RegisterPeer records the peer and returns what the peer needs to join.
func (s *State) RegisterPeer(pr peer.Peer) (Registration, error) {
	if _, err := s.AddKnownPeer(pr); err != nil {
		return Registration{}, err
	}

	listing, err := s.RetrieveChain()
	if err != nil {
		return Registration{}, err
	}

	reg := Registration{
		Listing: listing,
		Peers:   s.knownPeers.Hosts(pr.Host),
	}

	return reg, nil
}

// NetRegisterWithPeer registers this node with an existing node. The chain
// received back is imported after validation and the peers it knows are
// merged into the known peers.
func (s *State) NetRegisterWithPeer(ctx context.Context, host string) (Listing, error) {
	s.evHandler("state: NetRegisterWithPeer: started: %s", host)
	defer s.evHandler("state: NetRegisterWithPeer: completed: %s", host)

	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, host))

	var reg Registration
	if err := send(ctx, http.MethodPost, url, NodeAddress{NodeAddress: s.host}, &reg); err != nil {
		return Listing{}, errors.Wrapf(err, "registering with %s", host)
	}

	s.evHandler("state: NetRegisterWithPeer: peer[%s]: length[%d]: peers[%d]", host, reg.Length, len(reg.Peers))

	if err := s.ImportChain(reg.Chain); err != nil {
		return Listing{}, err
	}

	hosts := append([]string{host}, reg.Peers...)
	for _, h := range hosts {
		if _, err := s.AddKnownPeer(peer.New(h)); err != nil {
			s.evHandler("state: NetRegisterWithPeer: WARNING: %s", err)
		}
	}

	return s.RetrieveChain()
}

// NetRequestPeerStatus asks the peer for its status.
func (s *State) NetRequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(ctx, http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blknum[%d]: peer-list[%s]", pr, ps.LatestBlockNumber, ps.KnownPeers)

	return ps, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	ctx, cancel := context.WithTimeout(ctx, netTimeout)
	defer cancel()

	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var client http.Client
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.Newf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
