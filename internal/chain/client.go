// Package chain talks to the on-chain leaderboard contract through a single
// game-operated wallet.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"fighterarena/internal/submit"
)

// ErrNoWallet is returned by Dial when no private key is configured
var ErrNoWallet = errors.New("chain: game wallet private key is not set")

// Config selects the node, contract and wallet
type Config struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string
	// ChainID of 0 asks the node
	ChainID int64
}

// GameInfo is a registered game as stored by the contract
type GameInfo struct {
	Address common.Address
	Image   string
	Name    string
	URL     string
}

// Registered reports whether the game has been registered
func (g GameInfo) Registered() bool { return g.Name != "" }

// PlayerData is a player's standing within one game
type PlayerData struct {
	Score        *big.Int
	Transactions *big.Int
}

type backend interface {
	bind.ContractBackend
	bind.DeployBackend
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// Client is the leaderboard relay. It implements submit.Relay.
type Client struct {
	backend  backend
	closer   func()
	abi      abi.ABI
	address  common.Address
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	wallet   common.Address
	chainID  *big.Int
}

// Dial connects to the node and loads the game wallet
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.PrivateKey == "" {
		return nil, ErrNoWallet
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("chain: invalid contract address %q", cfg.ContractAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse game wallet key: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		if chainID, err = eth.ChainID(ctx); err != nil {
			eth.Close()
			return nil, fmt.Errorf("chain: query chain id: %w", err)
		}
	}

	c, err := newClient(eth, common.HexToAddress(cfg.ContractAddress), key, chainID)
	if err != nil {
		eth.Close()
		return nil, err
	}
	c.closer = eth.Close
	log.Printf("Chain relay ready: wallet %s, contract %s, chain %s", c.wallet.Hex(), c.address.Hex(), chainID)
	return c, nil
}

func newClient(b backend, address common.Address, key *ecdsa.PrivateKey, chainID *big.Int) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(leaderboardABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse leaderboard abi: %w", err)
	}
	return &Client{
		backend:  b,
		abi:      parsed,
		address:  address,
		contract: bind.NewBoundContract(address, parsed, b, b, b),
		key:      key,
		wallet:   crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
	}, nil
}

// WalletAddress returns the game wallet address
func (c *Client) WalletAddress() string {
	return c.wallet.Hex()
}

// Close releases the node connection
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx, From: c.wallet}, &out, method, args...)
	if err != nil {
		return nil, classifyError(method, err)
	}
	return out, nil
}

// GameInfo reads the registration of a game
func (c *Client) GameInfo(ctx context.Context, game common.Address) (GameInfo, error) {
	out, err := c.call(ctx, "games", game)
	if err != nil {
		return GameInfo{}, err
	}
	return GameInfo{
		Address: *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Image:   *abi.ConvertType(out[1], new(string)).(*string),
		Name:    *abi.ConvertType(out[2], new(string)).(*string),
		URL:     *abi.ConvertType(out[3], new(string)).(*string),
	}, nil
}

// GameRole reads the role identifier required to write scores
func (c *Client) GameRole(ctx context.Context) ([32]byte, error) {
	out, err := c.call(ctx, "GAME_ROLE")
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// HasRole reports whether account holds role
func (c *Client) HasRole(ctx context.Context, role [32]byte, account common.Address) (bool, error) {
	out, err := c.call(ctx, "hasRole", role, account)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// PlayerData reads a player's score within one game
func (c *Client) PlayerData(ctx context.Context, game, player common.Address) (PlayerData, error) {
	out, err := c.call(ctx, "playerDataPerGame", game, player)
	if err != nil {
		return PlayerData{}, err
	}
	return PlayerData{
		Score:        *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Transactions: *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
	}, nil
}

// TotalScore reads a player's score summed over every game
func (c *Client) TotalScore(ctx context.Context, player common.Address) (*big.Int, error) {
	out, err := c.call(ctx, "totalScoreOfPlayer", player)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Standing is everything the contract knows about one player
type Standing struct {
	Player       string   `json:"player"`
	Game         string   `json:"game"`
	GameScore    *big.Int `json:"gameScore"`
	Transactions *big.Int `json:"transactions"`
	TotalScore   *big.Int `json:"totalScore"`
}

// Standing reads the player's score in this game and overall
func (c *Client) Standing(ctx context.Context, player string) (Standing, error) {
	if !common.IsHexAddress(player) {
		return Standing{}, fmt.Errorf("%w: player address %q", submit.ErrInvalidInput, player)
	}
	addr := common.HexToAddress(player)

	data, err := c.PlayerData(ctx, c.wallet, addr)
	if err != nil {
		return Standing{}, err
	}
	total, err := c.TotalScore(ctx, addr)
	if err != nil {
		return Standing{}, err
	}
	return Standing{
		Player:       addr.Hex(),
		Game:         c.wallet.Hex(),
		GameScore:    data.Score,
		Transactions: data.Transactions,
		TotalScore:   total,
	}, nil
}

// SubmitScore writes the update through the game wallet and waits for it to
// be mined. Preconditions are checked first so that a missing registration or
// role fails without spending gas.
func (c *Client) SubmitScore(ctx context.Context, update submit.ChainUpdate) (*submit.Receipt, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	player := common.HexToAddress(update.Player)
	score := big.NewInt(update.Score)
	txCount := big.NewInt(update.Transactions)

	if err := c.preflight(ctx); err != nil {
		return nil, err
	}

	input, err := c.abi.Pack("updatePlayerData", player, score, txCount)
	if err != nil {
		return nil, fmt.Errorf("%w: pack update: %w", submit.ErrInvalidInput, err)
	}
	msg := ethereum.CallMsg{From: c.wallet, To: &c.address, Data: input}
	if _, err := c.backend.CallContract(ctx, msg, nil); err != nil {
		return nil, classifyError("simulate updatePlayerData", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx
	opts.NoSend = true

	// Sign first so the hash is known even when the send outcome is not
	tx, err := c.contract.Transact(opts, "updatePlayerData", player, score, txCount)
	if err != nil {
		return nil, classifyError("sign updatePlayerData", err)
	}
	hash := tx.Hash().Hex()
	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		sendErr := classifyError("send "+hash, err)
		if mayHaveLanded(err) {
			return nil, &submit.PendingTxError{Hash: hash, Err: sendErr}
		}
		return nil, sendErr
	}
	log.Printf("Sent score update for %s: tx %s (nonce %d)", player.Hex(), hash, tx.Nonce())

	return c.await(ctx, tx)
}

// AwaitTx waits for a transaction sent by an earlier SubmitScore. It returns
// submit.ErrTxDropped when the node no longer knows the transaction.
func (c *Client) AwaitTx(ctx context.Context, hash string) (*submit.Receipt, error) {
	tx, _, err := c.backend.TransactionByHash(ctx, common.HexToHash(hash))
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("tx %s: %w", hash, submit.ErrTxDropped)
	}
	if err != nil {
		return nil, &submit.PendingTxError{Hash: hash, Err: classifyError("look up "+hash, err)}
	}
	return c.await(ctx, tx)
}

// await blocks until tx is mined. Until then its outcome is unknown, so every
// failure is reported as pending.
func (c *Client) await(ctx context.Context, tx *types.Transaction) (*submit.Receipt, error) {
	hash := tx.Hash().Hex()
	start := time.Now()
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, &submit.PendingTxError{Hash: hash, Err: classifyError("wait for "+hash, err)}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &submit.RevertError{Reason: "transaction " + hash + " failed on-chain"}
	}
	log.Printf("Score update %s mined in block %d after %v", hash, receipt.BlockNumber.Uint64(), time.Since(start).Round(time.Millisecond))

	return &submit.Receipt{
		TxHash:      hash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Status:      receipt.Status,
	}, nil
}

func (c *Client) preflight(ctx context.Context) error {
	game, err := c.GameInfo(ctx, c.wallet)
	if err != nil {
		return err
	}
	if !game.Registered() {
		return fmt.Errorf("game %s: %w", c.wallet.Hex(), submit.ErrUnregistered)
	}

	role, err := c.GameRole(ctx)
	if err != nil {
		return err
	}
	ok, err := c.HasRole(ctx, role, c.wallet)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("wallet %s: %w", c.wallet.Hex(), submit.ErrUnauthorized)
	}
	return nil
}
