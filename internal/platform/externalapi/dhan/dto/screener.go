// Package dto mirrors the JSON documents of the Dhan screener.
package dto

import "encoding/json"

// ScreenerRequest is the POST body of one page request.
type ScreenerRequest struct {
	Data ScreenerQuery `json:"data"`
}

type ScreenerQuery struct {
	Sort   string   `json:"sort"`
	Order  string   `json:"sorder"`
	Count  int      `json:"count"`
	Params []Param  `json:"params"`
	Fields []string `json:"fields"`
	Page   int      `json:"pgno"`
}

type Param struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Val   string `json:"val"`
}

// ScreenerResponse carries one page of instruments. An empty page ends the list.
type ScreenerResponse struct {
	Data []Instrument `json:"data"`
}

type Instrument struct {
	Sym     string      `json:"Sym"`
	DispSym string      `json:"DispSym"`
	Isin    string      `json:"Isin"`
	Seg     string      `json:"Seg"`
	Inst    string      `json:"Inst"`
	Sid     json.Number `json:"Sid"`
	Seosym  string      `json:"Seosym"`
	Exch    string      `json:"Exch"`
}
