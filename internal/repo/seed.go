package repo

import (
	"context"

	"checkline/internal/domain"
)

// Seed loads a small demo program so the local service answers discovery
// calls out of the box.
func (r Repo) Seed(ctx context.Context) error {
	programs := []domain.Program{
		{ID: "prog-vehicle", Name: "Vehicle intake"},
	}
	checklists := []domain.Checklist{
		{ID: "chk-exterior", ProgramID: "prog-vehicle", Name: "Exterior"},
		{ID: "chk-cabin", ProgramID: "prog-vehicle", Name: "Cabin"},
	}
	sections := []domain.Section{
		{ID: "sec-body", Name: "Body"},
		{ID: "sec-equipment", Name: "Equipment"},
	}
	questions := map[string][]domain.Question{
		"chk-exterior": {
			{
				ID: "q-mileage", ExternalKey: "EXT-001", ProgramID: "prog-vehicle", SectionID: "sec-body",
				CollectionRequestID: "cr-1", Priority: 10, Type: domain.TypeOpen,
				Text: "Odometer reading", Unit: "km", ConditionMet: true,
			},
			{
				ID: "q-paint", ExternalKey: "EXT-002", ProgramID: "prog-vehicle", SectionID: "sec-body",
				CollectionRequestID: "cr-1", Priority: 20, Type: domain.TypeMultipleChoice,
				Text: "Paint condition", ConditionMet: true,
				Choices: []domain.Choice{
					{ID: "c-paint-ok", Label: "No damage", Value: "ok"},
					{ID: "c-paint-scratched", Label: "Scratched", Value: "scratched", RequiresComment: true, RequiresImage: true},
				},
			},
			{
				ID: "q-model", ExternalKey: "EXT-003", ProgramID: "prog-vehicle", SectionID: "sec-equipment",
				CollectionRequestID: "cr-1", Priority: 30, Type: domain.TypeCascadingSelect,
				Text: "Installed radio", ConditionMet: true,
			},
		},
		"chk-cabin": {
			{
				ID: "q-inspected-on", ExternalKey: "CAB-001", ProgramID: "prog-vehicle", SectionID: "sec-equipment",
				CollectionRequestID: "cr-1", Priority: 40, Type: domain.TypeDate,
				Text: "Cabin inspected on", Optional: true, ConditionMet: true,
			},
		},
	}
	specs := []domain.Specification{
		{
			CollectionRequestID: "cr-1",
			Role:                "inspector",
			Cascade: &domain.CascadeSpec{
				Levels: []domain.CascadeLevel{
					{LabelCode: "brand", Label: "Brand"},
					{LabelCode: "model", Label: "Model"},
					{LabelCode: "characteristics", Label: "Characteristics"},
				},
				LeafTemplate: "{power} {unit}",
				Lookup: &domain.CascadeNode{Children: map[string]*domain.CascadeNode{
					"AudioMax": {Children: map[string]*domain.CascadeNode{
						"AM-100": {Leaves: []map[string]string{
							{"power": "20", "unit": "W"},
							{"power": "40", "unit": "W"},
						}},
					}},
					"SoundCore": {Children: map[string]*domain.CascadeNode{
						"SC-7": {Leaves: []map[string]string{
							{"power": "60", "unit": "W"},
						}},
					}},
				}},
			},
		},
	}

	for _, p := range programs {
		if err := r.InsertProgram(ctx, p); err != nil {
			return err
		}
	}
	for _, c := range checklists {
		if err := r.InsertChecklist(ctx, c); err != nil {
			return err
		}
	}
	for _, s := range sections {
		if err := r.InsertSection(ctx, s); err != nil {
			return err
		}
	}
	for checklistID, qs := range questions {
		for _, q := range qs {
			for i := range q.Choices {
				q.Choices[i].QuestionID = q.ID
			}
			if err := r.InsertQuestion(ctx, checklistID, q); err != nil {
				return err
			}
		}
	}
	for _, s := range specs {
		if err := r.InsertSpecification(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
