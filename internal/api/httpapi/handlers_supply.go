package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Theras-Labs/theras-boost-protocol/internal/supply"
)

type supplyStateResponse struct {
	Authority       string    `json:"authority"`
	VaultReference  string    `json:"vault_reference"`
	TotalSupply     uint64    `json:"total_supply"`
	TotalCollateral uint64    `json:"total_collateral"`
	Paused          bool      `json:"paused"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type mintRecordResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Amount    uint64    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type redemptionRecordResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Kind      string    `json:"kind"`
	ItemID    string    `json:"item_id,omitempty"`
	Amount    uint64    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func supplyStateView(state supply.State) supplyStateResponse {
	return supplyStateResponse{
		Authority:       state.Authority,
		VaultReference:  state.VaultReference,
		TotalSupply:     state.TotalSupply,
		TotalCollateral: state.TotalCollateral,
		Paused:          state.Paused,
		CreatedAt:       state.CreatedAt,
		UpdatedAt:       state.UpdatedAt,
	}
}

func mintRecordView(record supply.MintRecord) mintRecordResponse {
	return mintRecordResponse{
		ID:        record.ID,
		User:      record.User,
		Amount:    record.Amount,
		Timestamp: record.Timestamp,
	}
}

func redemptionRecordView(record supply.RedemptionRecord) redemptionRecordResponse {
	return redemptionRecordResponse{
		ID:        record.ID,
		User:      record.User,
		Kind:      string(record.Kind),
		ItemID:    record.ItemID,
		Amount:    record.Amount,
		Timestamp: record.Timestamp,
	}
}

func (s *Server) handleSupplyState(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	state, err := s.service.SupplyState(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplyStateView(state))
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		VaultReference string `json:"vault_reference"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	state, err := s.service.Initialize(r.Context(), callerFromContext(r.Context()), request.VaultReference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplyStateView(state))
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		User   string `json:"user"`
		Amount uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	record, err := s.service.Mint(r.Context(), callerFromContext(r.Context()), request.User, request.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mintRecordView(record))
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		Amount uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	if err := s.service.DepositCollateral(r.Context(), callerFromContext(r.Context()), request.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRedeemCatalog(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		ItemID string `json:"item_id"`
		Amount uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	record, err := s.service.RedeemCatalog(r.Context(), callerFromContext(r.Context()), request.ItemID, request.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redemptionRecordView(record))
}

func (s *Server) handleRedeemStablecoin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		Amount uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	record, err := s.service.RedeemStablecoin(r.Context(), callerFromContext(r.Context()), request.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redemptionRecordView(record))
}

func (s *Server) handleListMints(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.service.ListMintRecords(r.Context(), pageSize, pageToken)
	if err != nil {
		writeError(w, err)
		return
	}
	records := make([]mintRecordResponse, 0, len(page.Records))
	for _, record := range page.Records {
		records = append(records, mintRecordView(record))
	}
	writeJSON(w, http.StatusOK, struct {
		Records       []mintRecordResponse `json:"records"`
		NextPageToken string               `json:"next_page_token,omitempty"`
	}{Records: records, NextPageToken: page.NextPageToken})
}

func (s *Server) handleListRedemptions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	pageSize, pageToken := pageParams(r)
	page, err := s.service.ListRedemptionRecords(r.Context(), pageSize, pageToken)
	if err != nil {
		writeError(w, err)
		return
	}
	records := make([]redemptionRecordResponse, 0, len(page.Records))
	for _, record := range page.Records {
		records = append(records, redemptionRecordView(record))
	}
	writeJSON(w, http.StatusOK, struct {
		Records       []redemptionRecordResponse `json:"records"`
		NextPageToken string                     `json:"next_page_token,omitempty"`
	}{Records: records, NextPageToken: page.NextPageToken})
}

func (s *Server) handleUpdateVault(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		VaultReference string `json:"vault_reference"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	state, err := s.service.UpdateVaultReference(r.Context(), callerFromContext(r.Context()), request.VaultReference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplyStateView(state))
}

func (s *Server) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		Paused bool `json:"paused"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	state, err := s.service.SetPaused(r.Context(), callerFromContext(r.Context()), request.Paused)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplyStateView(state))
}

func (s *Server) handleTransferAuthority(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var request struct {
		NewAuthority string `json:"new_authority"`
	}
	if !decodeBody(w, r, &request) {
		return
	}
	state, err := s.service.TransferAuthority(r.Context(), callerFromContext(r.Context()), request.NewAuthority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplyStateView(state))
}

// handleAccountRoutes serves /v1/accounts/{id}/balance.
func (s *Server) handleAccountRoutes(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "balance" {
		http.NotFound(w, r)
		return
	}
	account := parts[0]
	credit, err := s.service.CreditBalance(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	reserve, err := s.service.ReserveBalance(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Account string `json:"account"`
		Credit  uint64 `json:"credit"`
		Reserve uint64 `json:"reserve"`
	}{Account: account, Credit: credit, Reserve: reserve})
}
