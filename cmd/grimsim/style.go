package main

import (
	"strings"

	"grim/internal/domain"

	"github.com/pterm/pterm"
)

// tablePanel shows the scores, the contract and the trick in progress.
func tablePanel(m domain.Match) pterm.Panel {
	d := m.Deal
	pbox := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1)
	contract := "none"
	if d.Auction.HasDeclarer {
		contract = pterm.Sprintf("%s by %s", d.Auction.CurrentBid, m.Name(d.Auction.Declarer))
	}
	trump := "-"
	if d.Trump != domain.TrumpUnset {
		trump = d.Trump.Text()
	}
	order := "-"
	if d.RankOrder != domain.OrderUnset {
		order = d.RankOrder.String()
	}
	body := pterm.Sprintfln("Deal %d/%d  %s  dealer %s", d.Index+1, m.Config.Deals, d.Phase, m.Name(d.Dealer)) +
		pterm.Sprintfln("Scores: %s", m.Scores) +
		pterm.Sprintfln("Contract: %s  Order: %s  Trump: %s", contract, order, trump) +
		pterm.Sprintfln("Tricks: NS %d, EW %d", m.TeamTricks(domain.TeamNS), m.TeamTricks(domain.TeamEW)) +
		pterm.Sprintfln("Table: %s", trickText(d.CurrentTrick))
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|TABLE|")).WithTitleTopCenter().Sprint(body)}
}

// handPanel shows seat's hand with the cards it may play highlighted.
func handPanel(m domain.Match, seat domain.Seat) pterm.Panel {
	pbox := pterm.DefaultBox.WithLeftPadding(6).WithRightPadding(6).WithTopPadding(1).WithBottomPadding(1)
	legal := m.LegalCards(seat)
	var parts []string
	for _, c := range domain.SortHand(m.Hand(seat)) {
		if domain.ContainsCard(legal, c) {
			parts = append(parts, pterm.LightGreen(c.Label()))
		} else {
			parts = append(parts, c.Label())
		}
	}
	return pterm.Panel{Data: pbox.WithTitle(m.Name(seat)).WithTitleTopLeft().Sprint(strings.Join(parts, "  "))}
}

func trickText(t domain.Trick) string {
	if len(t.Plays) == 0 {
		return "(empty)"
	}
	return t.Text()
}

func printTable(m domain.Match, seat domain.Seat, human bool) {
	row := []pterm.Panel{tablePanel(m)}
	if human {
		row = append(row, handPanel(m, seat))
	}
	pterm.DefaultPanel.WithPanels([][]pterm.Panel{row}).Render()
}

// printOutcome renders the last scored deal.
func printOutcome(m domain.Match) {
	if len(m.History) == 0 {
		return
	}
	o := m.History[len(m.History)-1]
	pbox := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1)
	body := pterm.Sprintfln("%s", o.Message) + pterm.Sprintfln("Scores: %s", m.Scores)
	pterm.Println(pbox.WithTitle(pterm.LightGreen("|DEAL SCORED|")).WithTitleTopCenter().Sprint(body))
}
