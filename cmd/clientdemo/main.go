// Command clientdemo wires a minimal schema, a mock transport, and a
// client.Builder together end to end, the same "build one tiny example
// straight through" shape as a getting-started sample: register a Widget
// get operation, script a fixed response on the mock transport, invoke it
// through the real execution pipeline, and print what came back.
package main

import (
	"context"
	"fmt"

	"goa.design/schemarpc/client"
	jsoncodec "goa.design/schemarpc/codec/json"
	"goa.design/schemarpc/endpoint"
	"goa.design/schemarpc/retry"
	"goa.design/schemarpc/schema"
	transporthttp "goa.design/schemarpc/transport/http"
	"goa.design/schemarpc/transport/mock"
	"goa.design/schemarpc/value"
)

func buildGetWidgetOperation() (op, input, output *schema.Schema, reg *schema.Registry) {
	reg = schema.NewRegistry()

	strID := schema.NewID("clientdemo", "String")
	str := must(schema.NewBuilder(strID, schema.KindString).Build())
	must0(reg.Register(str))

	inputID := schema.NewID("clientdemo", "GetWidgetInput")
	input = must(schema.NewBuilder(inputID, schema.KindStructure).
		AddMember(reg, "id", strID, schema.Traits{schema.TraitHTTPLabel: true}).
		Build())
	must0(reg.Register(input))

	outputID := schema.NewID("clientdemo", "GetWidgetOutput")
	output = must(schema.NewBuilder(outputID, schema.KindStructure).
		AddMember(reg, "name", strID, nil).
		Build())
	must0(reg.Register(output))

	opID := schema.NewID("clientdemo", "GetWidget")
	op = must(schema.NewBuilder(opID, schema.KindOperation).
		Traits(schema.Traits{schema.TraitHTTP: transporthttp.OperationTrait{Method: "GET", Path: "/widgets/{id}", SuccessCode: 200}}).
		Operation(reg, inputID, outputID, nil, []string{"none"}).
		Build())
	must0(reg.Register(op))

	return op, input, output, reg
}

func main() {
	op, input, output, _ := buildGetWidgetOperation()

	codec := jsoncodec.New()
	transport := mock.New("http", codec)
	outValue := value.New(output)
	outValue.SetByName("name", "gizmo")
	transport.RegisterOutput(mock.MethodAndPath("GET", "/widgets/w-1"), 200, outValue)

	cfg, err := client.NewBuilder().Apply(
		client.WithServiceSchema(op),
		client.WithProtocol(&client.HTTPProtocol{Codec: codec}),
		client.WithTransport(transport),
		client.WithEndpointResolver(endpoint.NewStatic("https://example.com", nil)),
		client.WithRetryStrategy(retry.NewTokenBucketStrategy(3, 5, 1.0, 1, 1)),
	).Build()
	if err != nil {
		panic(err)
	}

	in := value.New(input)
	in.SetByName("id", "w-1")

	ctx := client.WithOperation(context.Background(), "clientdemo#GetWidget")
	out, err := client.Invoke[value.Value, value.Value](ctx, cfg, op, in)
	if err != nil {
		panic(err)
	}

	record := out.(*value.Record)
	name, _ := record.GetByName("name")
	fmt.Println("GetWidget name:", name)
	fmt.Println("requests sent:", len(transport.Requests()))
}

func must(s *schema.Schema, err error) *schema.Schema {
	if err != nil {
		panic(err)
	}
	return s
}

func must0(err error) {
	if err != nil {
		panic(err)
	}
}
