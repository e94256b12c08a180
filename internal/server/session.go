package server

import (
	"context"
	"log"
	"time"

	"fighterarena/internal/game"
	"fighterarena/internal/submit"
)

// runSession drives one client's game at the tick rate. It owns c.Send and
// closes it on return, which makes the write pump close the connection.
func (s *Server) runSession(c *Client) {
	defer s.sessions.Done()
	defer close(c.Send)

	tickRate := s.rules.TickRate
	if tickRate <= 0 {
		tickRate = game.TickRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	// Fires inside Step, under c.mu
	var finished *game.GameResult
	c.mu.Lock()
	c.session.OnGameOver(func(r game.GameResult) { finished = &r })
	c.session.Start()
	welcome := c.session.Welcome()
	c.mu.Unlock()
	c.send(welcome)

	for {
		select {
		case <-c.done:
			c.mu.Lock()
			c.session.Close()
			c.mu.Unlock()
			return

		case <-ticker.C:
			c.mu.Lock()
			c.session.Step()
			snap := c.session.Snapshot()
			c.mu.Unlock()

			c.send(snap)
			if finished != nil {
				s.finishGame(c, *finished)
				return
			}
		}
	}
}

// finishGame submits a completed game and reports the outcome to the client
func (s *Server) finishGame(c *Client, result game.GameResult) {
	msg := game.GameOverMsg{
		Type:     game.MsgTypeGameOver,
		Reason:   string(result.Reason),
		Score:    result.Score,
		Wave:     result.Wave,
		Kills:    result.Kills,
		Duration: result.DurationSeconds(),
	}

	res := s.submitter.Submit(context.Background(), submissionFrom(result))
	msg.Submitted = res.Success()
	msg.Blockchain = string(res.Chain.Status)
	switch {
	case res.Local.Err != nil:
		msg.Error = res.Local.Err.Error()
	case res.Chain.Err != nil:
		msg.Error = res.Chain.Err.Error()
	}
	log.Printf("Session %s submitted: local %s, chain %s", c.ID, res.Local.Status, res.Chain.Status)

	c.send(msg)
}

// submissionFrom maps a finished session onto a score submission. The relay's
// transaction count is the number of enemies killed.
func submissionFrom(r game.GameResult) submit.Submission {
	return submit.Submission{
		PlayerAddress:   r.PlayerAddress,
		PlayerName:      r.PlayerName,
		GameContract:    r.GameContract,
		Score:           int64(r.Score),
		Transactions:    int64(r.Kills),
		DurationSeconds: int64(r.DurationSeconds()),
		CreatedAt:       time.Now(),
	}
}
