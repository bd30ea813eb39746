package quota

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuxishi/quota-provider/internal/logs"
	"github.com/yuxishi/quota-provider/internal/model"
)

var tablesID = model.QuotaIdentity{ServiceCode: "dynamodb", QuotaCode: "L-F98FE922"}

// fakeClient serves canned answers per quota identity and records calls.
type fakeClient struct {
	history    map[model.QuotaIdentity][]model.ChangeRecord
	historyErr map[model.QuotaIdentity]error
	current    map[model.QuotaIdentity]float64
	currentErr map[model.QuotaIdentity]error
	defaults   map[model.QuotaIdentity]float64
	defaultErr map[model.QuotaIdentity]error
	submitErr  error

	calls     []string
	submitted []float64
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		history:    map[model.QuotaIdentity][]model.ChangeRecord{},
		historyErr: map[model.QuotaIdentity]error{},
		current:    map[model.QuotaIdentity]float64{},
		currentErr: map[model.QuotaIdentity]error{},
		defaults:   map[model.QuotaIdentity]float64{},
		defaultErr: map[model.QuotaIdentity]error{},
	}
}

func (f *fakeClient) ChangeHistory(_ context.Context, id model.QuotaIdentity) ([]model.ChangeRecord, error) {
	f.calls = append(f.calls, "history:"+id.QuotaCode)
	if err := f.historyErr[id]; err != nil {
		return nil, err
	}
	return f.history[id], nil
}

func (f *fakeClient) CurrentValue(_ context.Context, id model.QuotaIdentity) (float64, error) {
	f.calls = append(f.calls, "current:"+id.QuotaCode)
	if err := f.currentErr[id]; err != nil {
		return 0, err
	}
	v, ok := f.current[id]
	if !ok {
		return 0, fmt.Errorf("quota %s: %w", id, model.ErrNotFound)
	}
	return v, nil
}

func (f *fakeClient) DefaultValue(_ context.Context, id model.QuotaIdentity) (float64, error) {
	f.calls = append(f.calls, "default:"+id.QuotaCode)
	if err := f.defaultErr[id]; err != nil {
		return 0, err
	}
	return f.defaults[id], nil
}

func (f *fakeClient) RequestIncrease(_ context.Context, id model.QuotaIdentity, value float64) (model.ChangeRecord, error) {
	f.calls = append(f.calls, "submit:"+id.QuotaCode)
	if f.submitErr != nil {
		return model.ChangeRecord{}, f.submitErr
	}
	f.submitted = append(f.submitted, value)
	return model.ChangeRecord{
		ID:           fmt.Sprintf("req-%d", len(f.submitted)),
		Identity:     id,
		Status:       model.ChangeStatusPending,
		DesiredValue: value,
	}, nil
}

func tablesTable() Table {
	return NewTable(Mapping{Property: "tables", Identity: tablesID})
}

func reconcile(t *testing.T, client *fakeClient, table Table, previous, desired model.Properties) ([]Outcome, error) {
	t.Helper()
	return NewReconciler(client, logs.Discard()).Reconcile(context.Background(), table, previous, desired)
}

func TestReconcileDefaultBelowTargetSubmits(t *testing.T) {
	client := newFakeClient()
	client.defaults[tablesID] = 256

	outcomes, err := reconcile(t, client, tablesTable(), model.Properties{}, model.Properties{"tables": 500})
	require.NoError(t, err)

	assert.Equal(t, []float64{500}, client.submitted)
	assert.Equal(t, []string{"history:L-F98FE922", "current:L-F98FE922", "default:L-F98FE922", "submit:L-F98FE922"}, client.calls)
	require.Len(t, outcomes, 1)
	assert.Equal(t, DecisionRequested, outcomes[0].Decision)
	require.NotNil(t, outcomes[0].Request)
	assert.Equal(t, "req-1", outcomes[0].Request.ID)
}

func TestReconcileDefaultEqualToTargetShortCircuits(t *testing.T) {
	client := newFakeClient()
	client.defaults[tablesID] = 500

	outcomes, err := reconcile(t, client, tablesTable(), model.Properties{}, model.Properties{"tables": 500})
	require.NoError(t, err)

	assert.Empty(t, client.submitted)
	require.Len(t, outcomes, 1)
	assert.Equal(t, DecisionAlreadySatisfied, outcomes[0].Decision)
}

func TestReconcileDecreaseAgainstPreviousFailsBeforeLookups(t *testing.T) {
	client := newFakeClient()

	_, err := reconcile(t, client, tablesTable(), model.Properties{"tables": 500}, model.Properties{"tables": 100})

	var decrease *DecreaseError
	require.ErrorAs(t, err, &decrease)
	assert.Equal(t, SourcePrevious, decrease.Against)
	assert.Equal(t, 100.0, decrease.Desired)
	assert.Equal(t, 500.0, decrease.Value)
	assert.Contains(t, err.Error(), "100")
	assert.Contains(t, err.Error(), "500")
	assert.Empty(t, client.calls)
}

func TestReconcileUnchangedMakesNoCalls(t *testing.T) {
	client := newFakeClient()
	table := NewTable(
		Mapping{Property: "tables", Identity: tablesID},
		Mapping{Property: "stacks", Identity: model.QuotaIdentity{ServiceCode: "cloudformation", QuotaCode: "L-0485CB21"}},
	)

	outcomes, err := reconcile(t, client, table,
		model.Properties{"tables": 500, "stacks": "2000"},
		model.Properties{"tables": "500", "stacks": 2000.0},
	)
	require.NoError(t, err)

	assert.Empty(t, client.calls)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, DecisionUnchanged, o.Decision)
	}
}

func TestReconcilePendingRequest(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	tests := []struct {
		name         string
		history      []model.ChangeRecord
		current      *float64
		wantDecision Decision
		wantAgainst  Source
		wantSubmit   []float64
		wantCalls    []string
	}{
		{
			name: "pending equal to target short-circuits",
			history: []model.ChangeRecord{
				{ID: "a", Status: model.ChangeStatusPending, DesiredValue: 500},
			},
			wantDecision: DecisionAlreadyRequested,
			wantCalls:    []string{"history:L-F98FE922"},
		},
		{
			name: "case opened equal to target short-circuits",
			history: []model.ChangeRecord{
				{ID: "a", Status: model.ChangeStatusCaseOpened, DesiredValue: 500},
			},
			wantDecision: DecisionAlreadyRequested,
			wantCalls:    []string{"history:L-F98FE922"},
		},
		{
			name: "pending above target fails",
			history: []model.ChangeRecord{
				{ID: "a", Status: model.ChangeStatusPending, DesiredValue: 800},
			},
			wantAgainst: SourcePending,
			wantCalls:   []string{"history:L-F98FE922"},
		},
		{
			name: "pending below target submits a higher request",
			history: []model.ChangeRecord{
				{ID: "a", Status: model.ChangeStatusPending, DesiredValue: 300},
			},
			current:      ptr(256),
			wantDecision: DecisionRequested,
			wantSubmit:   []float64{500},
			wantCalls:    []string{"history:L-F98FE922", "current:L-F98FE922", "submit:L-F98FE922"},
		},
		{
			name: "closed requests are ignored",
			history: []model.ChangeRecord{
				{ID: "a", Status: model.ChangeStatusApproved, DesiredValue: 900},
				{ID: "b", Status: model.ChangeStatusDenied, DesiredValue: 500},
			},
			current:      ptr(256),
			wantDecision: DecisionRequested,
			wantSubmit:   []float64{500},
			wantCalls:    []string{"history:L-F98FE922", "current:L-F98FE922", "submit:L-F98FE922"},
		},
		{
			name: "most recent open request wins",
			history: []model.ChangeRecord{
				{ID: "old", Status: model.ChangeStatusPending, DesiredValue: 900, Created: older},
				{ID: "new", Status: model.ChangeStatusCaseOpened, DesiredValue: 500, Created: newer},
			},
			wantDecision: DecisionAlreadyRequested,
			wantCalls:    []string{"history:L-F98FE922"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			client.history[tablesID] = tt.history
			if tt.current != nil {
				client.current[tablesID] = *tt.current
			}

			outcomes, err := reconcile(t, client, tablesTable(), nil, model.Properties{"tables": 500})
			if tt.wantAgainst != "" {
				var decrease *DecreaseError
				require.ErrorAs(t, err, &decrease)
				assert.Equal(t, tt.wantAgainst, decrease.Against)
			} else {
				require.NoError(t, err)
				require.Len(t, outcomes, 1)
				assert.Equal(t, tt.wantDecision, outcomes[0].Decision)
			}
			assert.Equal(t, tt.wantSubmit, client.submitted)
			assert.Equal(t, tt.wantCalls, client.calls)
		})
	}
}

func TestReconcileCurrentValue(t *testing.T) {
	tests := []struct {
		name         string
		current      float64
		wantDecision Decision
		wantErr      bool
		wantSubmit   []float64
	}{
		{name: "current equal to target", current: 500, wantDecision: DecisionAlreadySatisfied},
		{name: "current above target", current: 1000, wantErr: true},
		{name: "current below target", current: 10, wantDecision: DecisionRequested, wantSubmit: []float64{500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			client.current[tablesID] = tt.current

			// desired differs from previous, but the quota may already be there.
			outcomes, err := reconcile(t, client, tablesTable(), model.Properties{"tables": 100}, model.Properties{"tables": 500})
			if tt.wantErr {
				var decrease *DecreaseError
				require.ErrorAs(t, err, &decrease)
				assert.Equal(t, SourceCurrent, decrease.Against)
				assert.Equal(t, tt.current, decrease.Value)
			} else {
				require.NoError(t, err)
				require.Len(t, outcomes, 1)
				assert.Equal(t, tt.wantDecision, outcomes[0].Decision)
			}
			assert.Equal(t, tt.wantSubmit, client.submitted)
			assert.NotContains(t, client.calls, "default:L-F98FE922")
		})
	}
}

func TestReconcileDefaultAboveTargetFails(t *testing.T) {
	client := newFakeClient()
	client.defaults[tablesID] = 2500

	_, err := reconcile(t, client, tablesTable(), nil, model.Properties{"tables": 500})

	var decrease *DecreaseError
	require.ErrorAs(t, err, &decrease)
	assert.Equal(t, SourceDefault, decrease.Against)
	assert.Empty(t, client.submitted)
}

func TestReconcileHistoryNotFoundContinues(t *testing.T) {
	client := newFakeClient()
	client.historyErr[tablesID] = fmt.Errorf("no history: %w", model.ErrNotFound)
	client.current[tablesID] = 256

	outcomes, err := reconcile(t, client, tablesTable(), nil, model.Properties{"tables": 500})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, DecisionRequested, outcomes[0].Decision)
	assert.Equal(t, []float64{500}, client.submitted)
}

func TestReconcilePropagatesUnexpectedErrors(t *testing.T) {
	boom := errors.New("throttled")

	tests := []struct {
		name  string
		setup func(*fakeClient)
	}{
		{name: "history", setup: func(f *fakeClient) { f.historyErr[tablesID] = boom }},
		{name: "current", setup: func(f *fakeClient) { f.currentErr[tablesID] = boom }},
		{name: "default", setup: func(f *fakeClient) { f.defaultErr[tablesID] = boom }},
		{name: "default not found", setup: func(f *fakeClient) { f.defaultErr[tablesID] = model.ErrNotFound }},
		{name: "submit", setup: func(f *fakeClient) { f.submitErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			tt.setup(client)

			_, err := reconcile(t, client, tablesTable(), nil, model.Properties{"tables": 500})
			require.Error(t, err)
			if tt.name == "default not found" {
				assert.Same(t, model.ErrNotFound, err)
				return
			}
			assert.Same(t, boom, err)
		})
	}
}

func TestReconcileSkipsUnmappedAndAbsentProperties(t *testing.T) {
	client := newFakeClient()
	client.defaults[tablesID] = 256

	outcomes, err := reconcile(t, client, tablesTable(), nil, model.Properties{
		"tables":      500,
		"Description": "not a quota",
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "tables", outcomes[0].Property)

	client = newFakeClient()
	outcomes, err = reconcile(t, client, tablesTable(), nil, model.Properties{"Description": "x"})
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Empty(t, client.calls)
}

func TestReconcileStopsAtFirstFailure(t *testing.T) {
	stacksID := model.QuotaIdentity{ServiceCode: "cloudformation", QuotaCode: "L-0485CB21"}
	table := NewTable(
		Mapping{Property: "tables", Identity: tablesID},
		Mapping{Property: "stacks", Identity: stacksID},
		Mapping{Property: "roles", Identity: model.QuotaIdentity{ServiceCode: "iam", QuotaCode: "L-FE177D64"}},
	)
	client := newFakeClient()
	client.defaults[tablesID] = 256
	client.current[stacksID] = 5000

	outcomes, err := reconcile(t, client, table, nil, model.Properties{
		"roles":  2000,
		"stacks": 1000,
		"tables": 500,
	})

	var decrease *DecreaseError
	require.ErrorAs(t, err, &decrease)
	assert.Equal(t, "stacks", decrease.Property)
	// tables ran first and stays submitted; roles was never reached.
	assert.Equal(t, []float64{500}, client.submitted)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "tables", outcomes[0].Property)
	assert.NotContains(t, client.calls, "history:L-FE177D64")
}

func TestReconcileRejectsNonNumericValues(t *testing.T) {
	client := newFakeClient()

	_, err := reconcile(t, client, tablesTable(), nil, model.Properties{"tables": "plenty"})
	var invalid *model.InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "tables", invalid.Property)

	_, err = reconcile(t, client, tablesTable(), model.Properties{"tables": true}, model.Properties{"tables": 500})
	require.ErrorAs(t, err, &invalid)

	assert.Empty(t, client.calls)
}

func TestTable(t *testing.T) {
	table := NewTable(
		Mapping{Property: "b", Identity: model.QuotaIdentity{ServiceCode: "s", QuotaCode: "B"}},
		Mapping{Property: "a", Identity: model.QuotaIdentity{ServiceCode: "s", QuotaCode: "A"}},
		Mapping{Property: "b", Identity: model.QuotaIdentity{ServiceCode: "s", QuotaCode: "dup"}},
	)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"b", "a"}, table.Properties())

	id, ok := table.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "B", id.QuotaCode)

	_, ok = table.Lookup("c")
	assert.False(t, ok)

	rows := table.Mappings()
	rows[0].Property = "changed"
	assert.Equal(t, []string{"b", "a"}, table.Properties())
}

func ptr(v float64) *float64 {
	return &v
}
