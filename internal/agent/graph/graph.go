package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/sarthi-rx/server/internal/agent/graph/nodes"
	"github.com/sarthi-rx/server/internal/agent/model"
	logx "github.com/sarthi-rx/server/pkg/logger"
)

const maxRunSteps = 20

// GraphBuilder handles the construction of the turn graph.
type GraphBuilder struct {
	deps  *nodes.Deps
	graph *compose.Graph[*model.TurnContext, *model.TurnResult]
}

// BuildGraph constructs and compiles the turn graph:
//
//	route -> confirm -> execute? -> finalize
//	route -> general -> finalize
//	route -> medical_advice -> recommend? -> extract? -> finalize
//	route -> extract -> resolve -> safety -> finalize
func BuildGraph(ctx context.Context, deps *nodes.Deps) (compose.Runnable[*model.TurnContext, *model.TurnResult], error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("graph config: %w", err)
	}

	builder := &GraphBuilder{
		deps: deps,
		graph: compose.NewGraph[*model.TurnContext, *model.TurnResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}
	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	d := b.deps
	lambdas := []struct {
		name   string
		lambda *compose.Lambda
	}{
		{nodes.NodeRoute, nodes.NewRouteNode(d)},
		{nodes.NodeGeneral, nodes.NewGeneralNode(d)},
		{nodes.NodeMedicalAdvice, nodes.NewMedicalAdviceNode(d)},
		{nodes.NodeRecommend, nodes.NewRecommendNode(d)},
		{nodes.NodeExtract, nodes.NewExtractNode(d)},
		{nodes.NodeResolve, nodes.NewResolveNode(d)},
		{nodes.NodeSafety, nodes.NewSafetyNode(d)},
		{nodes.NodeConfirm, nodes.NewConfirmNode(d)},
		{nodes.NodeExecute, nodes.NewExecuteNode(d)},
		{nodes.NodeFinalize, nodes.NewFinalizeNode()},
	}
	for _, l := range lambdas {
		if err := b.graph.AddLambdaNode(l.name, l.lambda, compose.WithNodeName(l.name)); err != nil {
			logx.Error().Err(err).Str("node", l.name).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", l.name, err)
		}
	}
	return nil
}

// addEdges creates the unconditional connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeRoute},
		{nodes.NodeGeneral, nodes.NodeFinalize},
		{nodes.NodeExtract, nodes.NodeResolve},
		{nodes.NodeSafety, nodes.NodeFinalize},
		{nodes.NodeExecute, nodes.NodeFinalize},
		{nodes.NodeFinalize, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	branches := []struct {
		from string
		cond func(context.Context, *model.TurnContext) (string, error)
		to   []string
	}{
		{
			from: nodes.NodeRoute,
			cond: nodes.NewRouteCondition(),
			to:   []string{nodes.NodeConfirm, nodes.NodeGeneral, nodes.NodeMedicalAdvice, nodes.NodeExtract},
		},
		{
			from: nodes.NodeConfirm,
			cond: nodes.NewConfirmCondition(),
			to:   []string{nodes.NodeExecute, nodes.NodeFinalize},
		},
		{
			from: nodes.NodeMedicalAdvice,
			cond: nodes.NewMedicalAdviceCondition(),
			to:   []string{nodes.NodeRecommend, nodes.NodeFinalize},
		},
		{
			from: nodes.NodeRecommend,
			cond: nodes.NewRecommendCondition(),
			to:   []string{nodes.NodeExtract, nodes.NodeFinalize},
		},
		{
			from: nodes.NodeResolve,
			cond: nodes.NewResolveCondition(),
			to:   []string{nodes.NodeSafety, nodes.NodeFinalize},
		},
	}

	for _, br := range branches {
		ends := make(map[string]bool, len(br.to))
		for _, t := range br.to {
			ends[t] = true
		}
		if err := b.graph.AddBranch(br.from, compose.NewGraphBranch(br.cond, ends)); err != nil {
			logx.Error().Err(err).Str("from", br.from).Msg("Error adding branch")
			return fmt.Errorf("error adding %s branch: %w", br.from, err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.TurnContext, *model.TurnResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
